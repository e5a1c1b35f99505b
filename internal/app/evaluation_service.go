package app

import (
	"context"
	"strings"

	"ragstack/internal/model"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

const maxTestQueries = 200

type EvaluationService struct {
	evaluationRepo    *repository.EvaluationRepository
	collectionService *CollectionService
	publisher         *rabbitmq.TaskPublisher
	evaluationQueue   string
}

type TestQueryInput struct {
	Query          string
	ExpectedAnswer string
	Category       string
	Difficulty     string
}

type CreateEvaluationInput struct {
	Name          string
	Description   string
	CollectionIDs []string
	Queries       []TestQueryInput
}

// EvaluationDetail bundles an evaluation with its queries and results.
type EvaluationDetail struct {
	Evaluation *model.Evaluation   `json:"evaluation"`
	Queries    []model.TestQuery   `json:"queries"`
	Results    []model.QueryResult `json:"results"`
}

func NewEvaluationService(
	evaluationRepo *repository.EvaluationRepository,
	collectionService *CollectionService,
	publisher *rabbitmq.TaskPublisher,
	evaluationQueue string,
) *EvaluationService {
	return &EvaluationService{
		evaluationRepo:    evaluationRepo,
		collectionService: collectionService,
		publisher:         publisher,
		evaluationQueue:   evaluationQueue,
	}
}

func (s *EvaluationService) Create(accessor Accessor, input CreateEvaluationInput) (*model.Evaluation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(input.Queries) == 0 || len(input.Queries) > maxTestQueries {
		return nil, ErrInvalidInput
	}

	visible, err := s.collectionService.visibleCollections(accessor, input.CollectionIDs)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, ErrRAGNoCollections
	}

	queries := make([]model.TestQuery, 0, len(input.Queries))
	for _, q := range input.Queries {
		text := strings.TrimSpace(q.Query)
		if text == "" {
			return nil, ErrInvalidInput
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = "medium"
		}
		queries = append(queries, model.TestQuery{
			Query:          text,
			ExpectedAnswer: strings.TrimSpace(q.ExpectedAnswer),
			Category:       strings.TrimSpace(q.Category),
			Difficulty:     difficulty,
		})
	}

	evaluation := &model.Evaluation{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   accessor.UserID,
		TenantID:    accessor.TenantID,
		Status:      model.EvaluationStatusPending,
	}
	evaluation.SetCollections(visible)

	if err := s.evaluationRepo.Create(evaluation, queries); err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (s *EvaluationService) Get(accessor Accessor, id string) (*EvaluationDetail, error) {
	evaluation, err := s.loadVisible(accessor, id)
	if err != nil {
		return nil, err
	}

	queries, err := s.evaluationRepo.ListQueries(id)
	if err != nil {
		return nil, err
	}
	results, err := s.evaluationRepo.ListResults(id)
	if err != nil {
		return nil, err
	}

	return &EvaluationDetail{Evaluation: evaluation, Queries: queries, Results: results}, nil
}

func (s *EvaluationService) List(accessor Accessor, status string, offset, limit int) ([]model.Evaluation, int64, error) {
	return s.evaluationRepo.ListByTenant(accessor.TenantID, status, offset, normalizeLimit(limit))
}

// Run enqueues the evaluation; results land asynchronously via the worker.
func (s *EvaluationService) Run(ctx context.Context, accessor Accessor, id string) (*model.Evaluation, error) {
	evaluation, err := s.loadVisible(accessor, id)
	if err != nil {
		return nil, err
	}
	if !CanManageTenantResource(accessor, evaluation.CreatedBy, evaluation.TenantID) {
		return nil, ErrForbidden
	}
	if evaluation.Status == model.EvaluationStatusRunning {
		return nil, ErrNotReady
	}

	if err := s.evaluationRepo.UpdateStatus(id, model.EvaluationStatusRunning, ""); err != nil {
		return nil, err
	}

	task := rabbitmq.EvaluationTask{EvaluationID: id, TenantID: evaluation.TenantID}
	if err := s.publisher.Publish(ctx, s.evaluationQueue, "evaluation.run", task); err != nil {
		return nil, err
	}

	evaluation.Status = model.EvaluationStatusRunning
	return evaluation, nil
}

func (s *EvaluationService) Delete(accessor Accessor, id string) error {
	evaluation, err := s.loadVisible(accessor, id)
	if err != nil {
		return err
	}
	if !CanManageTenantResource(accessor, evaluation.CreatedBy, evaluation.TenantID) {
		return ErrForbidden
	}
	return s.evaluationRepo.Delete(id)
}

func (s *EvaluationService) loadVisible(accessor Accessor, id string) (*model.Evaluation, error) {
	evaluation, err := s.evaluationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, ErrNotFound
	}
	if !CanViewTenantResource(accessor, evaluation.TenantID) {
		return nil, ErrForbidden
	}
	return evaluation, nil
}

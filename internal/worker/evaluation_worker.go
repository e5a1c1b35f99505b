package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragstack/internal/app"
	"ragstack/internal/model"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

// EvaluationWorker executes an evaluation run: every test query goes
// through the retrieval pipeline and the per-query outcomes are scored
// into an overall result.
type EvaluationWorker struct {
	consumer *consumer

	evaluationRepo *repository.EvaluationRepository
	ragService     *app.RAGService
	logger         *zap.Logger
}

func NewEvaluationWorker(
	conn *amqp.Connection,
	queueName string,
	evaluationRepo *repository.EvaluationRepository,
	ragService *app.RAGService,
	logger *zap.Logger,
) *EvaluationWorker {
	w := &EvaluationWorker{
		evaluationRepo: evaluationRepo,
		ragService:     ragService,
		logger:         logger,
	}
	w.consumer = newConsumer(conn, queueName, logger, w.handle)
	return w
}

func (w *EvaluationWorker) Start(ctx context.Context) error {
	return w.consumer.Start(ctx)
}

func (w *EvaluationWorker) Close() {
	w.consumer.Close()
}

func (w *EvaluationWorker) handle(ctx context.Context, task rabbitmq.Task) error {
	var payload rabbitmq.EvaluationTask
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode evaluation task failed: %w", err)
	}

	if err := w.run(ctx, payload.EvaluationID); err != nil {
		_ = w.evaluationRepo.UpdateStatus(payload.EvaluationID, model.EvaluationStatusFailed, err.Error())
		return err
	}
	return nil
}

func (w *EvaluationWorker) run(ctx context.Context, evaluationID string) error {
	evaluation, err := w.evaluationRepo.GetByID(evaluationID)
	if err != nil {
		return err
	}
	if evaluation == nil {
		return fmt.Errorf("evaluation %s not found", evaluationID)
	}

	queries, err := w.evaluationRepo.ListQueries(evaluationID)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("evaluation %s has no test queries", evaluationID)
	}

	collectionIDs := evaluation.Collections()
	results := make([]model.QueryResult, 0, len(queries))
	var scoreSum float64

	for _, q := range queries {
		started := time.Now()
		result := model.QueryResult{
			EvaluationID: evaluationID,
			QueryID:      q.ID,
			Query:        q.Query,
		}

		answer, err := w.ragService.Answer(ctx, collectionIDs, q.Query, nil)
		if err != nil {
			result.Success = false
			result.ErrorMessage = err.Error()
		} else {
			result.Success = true
			result.Answer = answer.Answer
			result.Confidence = answer.Confidence
			result.SourcesRetrieved = len(answer.Chunks)
			scoreSum += scoreResult(q, answer)
		}
		result.ProcessingTimeMS = time.Since(started).Milliseconds()
		results = append(results, result)
	}

	overall := scoreSum / float64(len(queries))
	if err := w.evaluationRepo.Complete(evaluationID, results, overall, time.Now()); err != nil {
		return err
	}

	w.logger.Info("evaluation finished",
		zap.String("evaluation_id", evaluationID),
		zap.Int("queries", len(queries)),
		zap.Float64("overall_score", overall))
	return nil
}

// scoreResult blends retrieval confidence with expected-answer term recall
// when a reference answer is available.
func scoreResult(q model.TestQuery, answer *app.RAGAnswer) float64 {
	score := answer.Confidence
	if q.ExpectedAnswer == "" {
		return score
	}

	expected := strings.Fields(strings.ToLower(q.ExpectedAnswer))
	if len(expected) == 0 {
		return score
	}
	got := strings.ToLower(answer.Answer)
	hits := 0
	for _, term := range expected {
		if strings.Contains(got, term) {
			hits++
		}
	}
	recall := float64(hits) / float64(len(expected))
	return score*0.5 + recall*0.5
}

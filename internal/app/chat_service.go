package app

import (
	"context"
	"strings"

	"ragstack/internal/ai"
	"ragstack/internal/cache"
	"ragstack/internal/model"
	"ragstack/internal/repository"
)

// historyWindow bounds how many prior messages feed the generation prompt.
const historyWindow = 10

type ChatService struct {
	chatRepo          *repository.ChatRepository
	collectionService *CollectionService
	ragService        *RAGService
	historyCache      *cache.HistoryCache
}

type CreateSessionInput struct {
	Title         string
	CollectionIDs []string
}

type SendMessageResult struct {
	UserMessage      *model.ChatMessage
	AssistantMessage *model.ChatMessage
	Citations        []model.Citation
	Confidence       float64
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	collectionService *CollectionService,
	ragService *RAGService,
	historyCache *cache.HistoryCache,
) *ChatService {
	return &ChatService{
		chatRepo:          chatRepo,
		collectionService: collectionService,
		ragService:        ragService,
		historyCache:      historyCache,
	}
}

func (s *ChatService) CreateSession(accessor Accessor, input CreateSessionInput) (*model.ChatSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New chat"
	}

	visible, err := s.collectionService.visibleCollections(accessor, input.CollectionIDs)
	if err != nil {
		return nil, err
	}
	if len(input.CollectionIDs) > 0 && len(visible) == 0 {
		return nil, ErrForbidden
	}

	session := &model.ChatSession{
		UserID:   accessor.UserID,
		TenantID: accessor.TenantID,
		Title:    title,
	}
	session.SetCollections(visible)

	if err := s.chatRepo.CreateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) GetSession(accessor Accessor, id string) (*model.ChatSession, error) {
	session, err := s.loadOwnedSession(accessor, id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(accessor Accessor, includeArchived bool, offset, limit int) ([]model.ChatSession, int64, error) {
	return s.chatRepo.ListSessionsByUser(accessor.UserID, includeArchived, offset, normalizeLimit(limit))
}

func (s *ChatService) RenameSession(accessor Accessor, id, title string) (*model.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.loadOwnedSession(accessor, id)
	if err != nil {
		return nil, err
	}

	session.Title = title
	if err := s.chatRepo.UpdateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ArchiveSession(accessor Accessor, id string, archived bool) (*model.ChatSession, error) {
	session, err := s.loadOwnedSession(accessor, id)
	if err != nil {
		return nil, err
	}

	session.IsArchived = archived
	if err := s.chatRepo.UpdateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, accessor Accessor, id string) error {
	if _, err := s.loadOwnedSession(accessor, id); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteSession(id); err != nil {
		return err
	}
	return s.historyCache.DeleteHistory(ctx, id)
}

// History returns the session transcript, served from Redis when fresh.
func (s *ChatService) History(ctx context.Context, accessor Accessor, sessionID string) ([]model.ChatMessage, error) {
	if _, err := s.loadOwnedSession(accessor, sessionID); err != nil {
		return nil, err
	}

	dirty, err := s.historyCache.IsDirty(ctx, sessionID)
	if err == nil && !dirty {
		if cached, ok, cerr := s.historyCache.GetHistory(ctx, sessionID); cerr == nil && ok {
			return cached, nil
		}
	}

	messages, err := s.chatRepo.ListMessages(sessionID)
	if err != nil {
		return nil, err
	}
	_ = s.historyCache.SetHistory(ctx, sessionID, messages)
	return messages, nil
}

// QueryResult is a one-shot answer produced outside any session.
type QueryResult struct {
	Answer       string           `json:"answer"`
	Citations    []model.Citation `json:"citations"`
	Confidence   float64          `json:"confidence"`
	ProcessingMS int64            `json:"processing_ms"`
}

// Query answers a question over the given collections without creating a
// session; nothing is persisted.
func (s *ChatService) Query(ctx context.Context, accessor Accessor, collectionIDs []string, query string) (*QueryResult, error) {
	visible, err := s.collectionService.visibleCollections(accessor, collectionIDs)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, ErrForbidden
	}

	answer, err := s.ragService.Answer(ctx, visible, query, nil)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Answer:       answer.Answer,
		Citations:    s.ragService.Citations("", answer.Chunks),
		Confidence:   answer.Confidence,
		ProcessingMS: answer.Duration.Milliseconds(),
	}, nil
}

// SendMessage persists the user turn, runs the retrieval pipeline over the
// session's collections and persists the grounded assistant turn with its
// citations.
func (s *ChatService) SendMessage(ctx context.Context, accessor Accessor, sessionID, content string) (*SendMessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.loadOwnedSession(accessor, sessionID)
	if err != nil {
		return nil, err
	}

	collectionIDs, err := s.collectionService.visibleCollections(accessor, session.Collections())
	if err != nil {
		return nil, err
	}
	if len(collectionIDs) == 0 {
		return nil, ErrRAGNoCollections
	}

	history, err := s.chatRepo.ListMessages(sessionID)
	if err != nil {
		return nil, err
	}

	userMessage := &model.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   content,
	}
	if err := s.chatRepo.CreateMessage(userMessage); err != nil {
		return nil, err
	}
	_ = s.historyCache.MarkDirty(ctx, sessionID)

	answer, err := s.ragService.Answer(ctx, collectionIDs, content, promptHistory(history))
	if err != nil {
		return nil, err
	}

	assistantMessage := &model.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answer.Answer,
	}
	if err := s.chatRepo.CreateMessage(assistantMessage); err != nil {
		return nil, err
	}

	citations := s.ragService.Citations(assistantMessage.ID, answer.Chunks)
	if err := s.chatRepo.CreateCitations(citations); err != nil {
		return nil, err
	}

	_ = s.historyCache.DeleteHistory(ctx, sessionID)

	return &SendMessageResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		Citations:        citations,
		Confidence:       answer.Confidence,
	}, nil
}

func (s *ChatService) Citations(accessor Accessor, sessionID, messageID string) ([]model.Citation, error) {
	if _, err := s.loadOwnedSession(accessor, sessionID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListCitationsByMessage(messageID)
}

func (s *ChatService) loadOwnedSession(accessor Accessor, id string) (*model.ChatSession, error) {
	session, err := s.chatRepo.GetSessionByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.UserID != accessor.UserID && !accessor.IsAdmin() {
		return nil, ErrForbidden
	}
	return session, nil
}

// promptHistory maps the last few stored turns into LLM messages.
func promptHistory(messages []model.ChatMessage) []ai.ChatMessage {
	if len(messages) > historyWindow {
		messages = messages[len(messages)-historyWindow:]
	}
	history := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		history = append(history, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}

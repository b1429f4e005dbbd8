package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/prediction"
	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// QuestionView is everything the transport needs to render one question:
// the prompt, the viewer's answer, the recorded correct answer, and
// navigation positions clamped at both ends.
type QuestionView struct {
	ID            string
	Question      prediction.Question
	UserAnswer    string
	CorrectAnswer string
	Index         int
	Total         int
	PrevID        string
	NextID        string
}

// Open reports whether the question still accepts answers from this viewer.
func (v QuestionView) Open() bool {
	return v.UserAnswer == "" && v.CorrectAnswer == ""
}

// PredictionService manages binary questions, write-once answers, and the
// admin-recorded correct answers that close a question.
type PredictionService struct {
	realms *RealmManager
	logger *logging.Logger
}

func NewPredictionService(realms *RealmManager, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionService{
		realms: realms,
		logger: logger,
	}
}

// AddQuestion registers a new question and returns its assigned identifier.
// Identifiers are decimal strings counting up from "1"; removed data never
// frees an identifier for reuse.
func (s *PredictionService) AddQuestion(ctx context.Context, realmName string, actor Actor, text, optionA, optionB string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.AddQuestion")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	optionA = strings.TrimSpace(optionA)
	optionB = strings.TrimSpace(optionB)
	if text == "" || optionA == "" || optionB == "" {
		return "", fmt.Errorf("%w: question text and both options are required", ErrInvalidInput)
	}

	var assigned string
	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		assigned = nextQuestionID(doc.Questions)
		doc.Questions[assigned] = prediction.NewQuestion(text, optionA, optionB)
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "question added", "realm", realmName, "question_id", assigned, "admin", actor.ID)
	return assigned, nil
}

// Answer records the user's choice, write-once. A repeat answer or an
// answer to a closed question is rejected without touching the stored
// value.
func (s *PredictionService) Answer(ctx context.Context, realmName string, actor Actor, questionID, chosen string) error {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.Answer")
	defer span.End()

	questionID = strings.TrimSpace(questionID)
	chosen = strings.TrimSpace(chosen)
	if strings.TrimSpace(actor.ID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if questionID == "" || chosen == "" {
		return fmt.Errorf("%w: question id and answer are required", ErrInvalidInput)
	}

	return s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		question, ok := doc.Questions[questionID]
		if !ok {
			return fmt.Errorf("%w: question %s", ErrNotFound, questionID)
		}
		if !isOption(question, chosen) {
			return fmt.Errorf("%w: %s is not an option for question %s", ErrInvalidInput, chosen, questionID)
		}
		if _, ok := doc.CorrectAnswers[questionID]; ok {
			return fmt.Errorf("%w: question %s", ErrQuestionClosed, questionID)
		}
		if _, ok := doc.UserAnswers[actor.ID][questionID]; ok {
			return fmt.Errorf("%w: question %s", ErrAlreadyAnswered, questionID)
		}

		if doc.UserAnswers[actor.ID] == nil {
			doc.UserAnswers[actor.ID] = make(map[string]string)
		}
		doc.UserAnswers[actor.ID][questionID] = chosen
		return nil
	})
}

// SetCorrectAnswer records the outcome by 1-based option index and closes
// the question to further answers. Write-once per question.
func (s *PredictionService) SetCorrectAnswer(ctx context.Context, realmName string, actor Actor, questionID string, optionIndex int) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.SetCorrectAnswer")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return "", fmt.Errorf("%w: question id is required", ErrInvalidInput)
	}

	var answer string
	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		question, ok := doc.Questions[questionID]
		if !ok {
			return fmt.Errorf("%w: question %s", ErrNotFound, questionID)
		}
		option, ok := question.Option(optionIndex)
		if !ok {
			return fmt.Errorf("%w: option index must be 1 or 2", ErrInvalidInput)
		}
		if _, ok := doc.CorrectAnswers[questionID]; ok {
			return fmt.Errorf("%w: correct answer for question %s", ErrAlreadyExists, questionID)
		}
		doc.CorrectAnswers[questionID] = option
		answer = option
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "correct answer recorded",
		"realm", realmName,
		"question_id", questionID,
		"admin", actor.ID,
	)
	return answer, nil
}

// FirstQuestion opens the question flow at the lowest identifier.
func (s *PredictionService) FirstQuestion(ctx context.Context, realmName, userID string) (QuestionView, error) {
	return s.question(ctx, realmName, userID, func(ids []string) (string, error) {
		if len(ids) == 0 {
			return "", fmt.Errorf("%w: no questions yet", ErrNotFound)
		}
		return ids[0], nil
	})
}

// Question renders one question for the viewer.
func (s *PredictionService) Question(ctx context.Context, realmName, userID, questionID string) (QuestionView, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return QuestionView{}, fmt.Errorf("%w: question id is required", ErrInvalidInput)
	}
	return s.question(ctx, realmName, userID, func([]string) (string, error) {
		return questionID, nil
	})
}

// Previous moves one question back, clamped at the first.
func (s *PredictionService) Previous(ctx context.Context, realmName, userID, fromID string) (QuestionView, error) {
	return s.step(ctx, realmName, userID, fromID, -1)
}

// Next moves one question forward, clamped at the last.
func (s *PredictionService) Next(ctx context.Context, realmName, userID, fromID string) (QuestionView, error) {
	return s.step(ctx, realmName, userID, fromID, +1)
}

func (s *PredictionService) step(ctx context.Context, realmName, userID, fromID string, offset int) (QuestionView, error) {
	fromID = strings.TrimSpace(fromID)
	if fromID == "" {
		return QuestionView{}, fmt.Errorf("%w: question id is required", ErrInvalidInput)
	}

	return s.question(ctx, realmName, userID, func(ids []string) (string, error) {
		at := indexOf(ids, fromID)
		if at < 0 {
			return "", fmt.Errorf("%w: question %s", ErrNotFound, fromID)
		}
		target := at + offset
		if target < 0 {
			target = 0
		}
		if target > len(ids)-1 {
			target = len(ids) - 1
		}
		return ids[target], nil
	})
}

func (s *PredictionService) question(ctx context.Context, realmName, userID string, pick func(ids []string) (string, error)) (QuestionView, error) {
	ctx, span := startUsecaseSpan(ctx, "PredictionService.question")
	defer span.End()

	var view QuestionView
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		ids := sortedQuestionIDs(doc.Questions)
		id, err := pick(ids)
		if err != nil {
			return err
		}
		question, ok := doc.Questions[id]
		if !ok {
			return fmt.Errorf("%w: question %s", ErrNotFound, id)
		}

		at := indexOf(ids, id)
		view = QuestionView{
			ID:            id,
			Question:      question,
			UserAnswer:    doc.UserAnswers[userID][id],
			CorrectAnswer: doc.CorrectAnswers[id],
			Index:         at + 1,
			Total:         len(ids),
		}
		if at > 0 {
			view.PrevID = ids[at-1]
		}
		if at < len(ids)-1 {
			view.NextID = ids[at+1]
		}
		return nil
	})
	if err != nil {
		return QuestionView{}, err
	}
	return view, nil
}

// sortedQuestionIDs orders identifiers numerically. IDs are assigned as
// decimal strings, so lexicographic order diverges past "9".
func sortedQuestionIDs(questions map[string]prediction.Question) []string {
	ids := make([]string, 0, len(questions))
	for id := range questions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return ids
}

func nextQuestionID(questions map[string]prediction.Question) string {
	highest := 0
	for id := range questions {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func isOption(question prediction.Question, chosen string) bool {
	for _, option := range question.Options {
		if option == chosen {
			return true
		}
	}
	return false
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

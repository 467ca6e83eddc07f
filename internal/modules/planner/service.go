// README: Planner service runs the generate, refine and chat pipelines end to end.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"voyage/internal/ai"
	"voyage/internal/maps"
	"voyage/internal/modules/conversation"
	"voyage/internal/modules/itinerary"
	"voyage/internal/types"
)

// RetryMessage is returned in place of a reply when the completion service throttles.
const RetryMessage = "Je reçois actuellement un volume élevé de demandes. Veuillez réessayer dans quelques instants."

// Plans is the itinerary persistence used by the pipelines.
type Plans interface {
	Create(ctx context.Context, cmd itinerary.CreateCommand) (*itinerary.Plan, error)
	Get(ctx context.Context, ownerID, id types.ID) (*itinerary.Plan, error)
	Save(ctx context.Context, p itinerary.Plan, expectedVersion int) (*itinerary.Plan, error)
}

// Quota gates completion-backed requests per owner.
type Quota interface {
	Use(ctx context.Context, ownerID types.ID) error
}

// PlaceFinder supplies destination hints for free-form chat.
type PlaceFinder interface {
	TopAttractions(ctx context.Context, destination string) ([]maps.Place, error)
}

type Deps struct {
	Completer ai.Completer
	Plans     Plans
	Log       conversation.Log
	Quota     Quota       // optional
	Places    PlaceFinder // optional
	Logger    *slog.Logger
}

type Service struct {
	completer ai.Completer
	plans     Plans
	log       conversation.Log
	quota     Quota
	places    PlaceFinder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		completer: deps.Completer,
		plans:     deps.Plans,
		log:       deps.Log,
		quota:     deps.Quota,
		places:    deps.Places,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type GenerateResult struct {
	// Plan is nil when the response was not an itinerary (refusal, throttling).
	Plan        *itinerary.Plan
	Reply       string
	Truncated   bool
	RateLimited bool
}

type RefineResult struct {
	Plan        *itinerary.Plan
	Reply       string
	Replaced    bool
	Applied     []string
	Truncated   bool
	RateLimited bool
}

type ChatResult struct {
	Reply       string
	Places      []maps.Place
	Truncated   bool
	RateLimited bool
}

// Generate renders the specification, asks for an itinerary and persists it
// when the response is a full plan.
func (s *Service) Generate(ctx context.Context, ownerID types.ID, spec itinerary.TripSpec) (GenerateResult, error) {
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return GenerateResult{}, err
	}
	if err := s.useQuota(ctx, ownerID); err != nil {
		return GenerateResult{}, err
	}

	prompt := BuildGenerationPrompt(spec)
	completion, err := s.completer.Complete(ctx, prompt, nil)
	if errors.Is(err, ai.ErrRateLimited) {
		s.logger.Warn("completion throttled", "op", "generate", "owner_id", ownerID)
		return GenerateResult{Reply: RetryMessage, RateLimited: true}, nil
	}
	if err != nil {
		return GenerateResult{}, err
	}

	ex := s.extract(ownerID, completion.Text)
	if !ex.Updates.Empty() {
		s.logger.Debug("ignoring updates on generation", "owner_id", ownerID, "fields", ex.Updates.Fields())
	}
	res := GenerateResult{Reply: ex.Visible, Truncated: completion.Truncated}
	if completion.Truncated {
		s.logger.Warn("truncated generation not persisted", "owner_id", ownerID)
		return res, nil
	}
	if !IsFullPlan(ex.Visible) {
		s.logger.Info("generation produced no itinerary", "owner_id", ownerID, "chars", len(ex.Visible))
		return res, nil
	}

	plan, err := s.plans.Create(ctx, itinerary.CreateCommand{OwnerID: ownerID, Spec: spec, GeneratedPlan: ex.Visible})
	if err != nil {
		return GenerateResult{}, fmt.Errorf("persist generated plan: %w", err)
	}
	res.Plan = plan
	s.record(ctx, ownerID, GenerationSummary(spec), ex.Visible)
	return res, nil
}

// Refine applies one free-form request to a stored plan. The plan is written
// only when the response is a complete full replacement; a reply cut off at the
// length cap is shown but never stored. The write is version-checked against
// the plan that was read, so concurrent refinements cannot interleave.
func (s *Service) Refine(ctx context.Context, ownerID, planID types.ID, message string) (RefineResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return RefineResult{}, fmt.Errorf("%w: message is required", itinerary.ErrValidation)
	}
	current, err := s.plans.Get(ctx, ownerID, planID)
	if err != nil {
		return RefineResult{}, err
	}
	if err := s.useQuota(ctx, ownerID); err != nil {
		return RefineResult{}, err
	}

	prompt := BuildRefinementPrompt(current.GeneratedPlan, message)
	completion, err := s.completer.Complete(ctx, prompt, s.history(ctx, ownerID))
	if errors.Is(err, ai.ErrRateLimited) {
		s.logger.Warn("completion throttled", "op", "refine", "owner_id", ownerID, "plan_id", planID)
		return RefineResult{Plan: current, Reply: RetryMessage, RateLimited: true}, nil
	}
	if err != nil {
		return RefineResult{}, err
	}

	ex := s.extract(ownerID, completion.Text)
	if completion.Truncated {
		s.logger.Warn("truncated refinement not persisted", "owner_id", ownerID, "plan_id", planID)
		s.record(ctx, ownerID, message, ex.Visible)
		return RefineResult{Plan: current, Reply: ex.Visible, Truncated: true}, nil
	}
	out := Reconcile(*current, ex.Visible, ex.Updates)
	res := RefineResult{
		Plan:      current,
		Reply:     ex.Visible,
		Replaced:  out.Replaced,
		Applied:   out.Applied,
	}

	if out.Replaced {
		saved, err := s.plans.Save(ctx, out.Plan, current.Version)
		if err != nil {
			return RefineResult{}, err
		}
		res.Plan = saved
		s.logger.Info("plan refined", "owner_id", ownerID, "plan_id", planID, "version", saved.Version, "applied", out.Applied)
	} else if !ex.Updates.Empty() {
		s.logger.Warn("updates ignored on conversational reply", "owner_id", ownerID, "plan_id", planID, "fields", ex.Updates.Fields())
	}

	s.record(ctx, ownerID, message, ex.Visible)
	return res, nil
}

// Chat answers a free-form travel question using the owner's history, adding
// attraction hints when the message names a place.
func (s *Service) Chat(ctx context.Context, ownerID types.ID, message string) (ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatResult{}, fmt.Errorf("%w: message is required", itinerary.ErrValidation)
	}
	if err := s.useQuota(ctx, ownerID); err != nil {
		return ChatResult{}, err
	}

	prompt := message
	places := s.hints(ctx, message)
	if len(places) > 0 {
		prompt = message + formatHints(DetectDestination(message), places)
	}

	completion, err := s.completer.Complete(ctx, prompt, s.history(ctx, ownerID))
	if errors.Is(err, ai.ErrRateLimited) {
		s.logger.Warn("completion throttled", "op", "chat", "owner_id", ownerID)
		return ChatResult{Reply: RetryMessage, RateLimited: true}, nil
	}
	if err != nil {
		return ChatResult{}, err
	}

	ex := s.extract(ownerID, completion.Text)
	s.record(ctx, ownerID, message, ex.Visible)
	return ChatResult{Reply: ex.Visible, Places: places, Truncated: completion.Truncated}, nil
}

// History returns the owner's conversation, oldest first.
func (s *Service) History(ctx context.Context, ownerID types.ID) ([]conversation.Turn, error) {
	return s.log.GetAll(ctx, ownerID)
}

func (s *Service) ClearHistory(ctx context.Context, ownerID types.ID) error {
	return s.log.Clear(ctx, ownerID)
}

func (s *Service) useQuota(ctx context.Context, ownerID types.ID) error {
	if s.quota == nil {
		return nil
	}
	return s.quota.Use(ctx, ownerID)
}

func (s *Service) extract(ownerID types.ID, text string) Extraction {
	ex := ExtractUpdates(text)
	if ex.Err != nil {
		s.logger.Warn("discarding update block", "owner_id", ownerID, "error", ex.Err)
	}
	if len(ex.Updates.Rejected) > 0 {
		s.logger.Warn("update fields failed sanitization", "owner_id", ownerID, "fields", ex.Updates.Rejected)
	}
	if len(ex.Updates.Unknown) > 0 {
		s.logger.Warn("ignoring unknown update fields", "owner_id", ownerID, "fields", lo.Keys(ex.Updates.Unknown))
	}
	return ex
}

// history loads context for the completion call. The log is advisory, so a
// read failure degrades to no history.
func (s *Service) history(ctx context.Context, ownerID types.ID) []ai.Turn {
	turns, err := s.log.GetAll(ctx, ownerID)
	if err != nil {
		s.logger.Warn("conversation log unavailable", "owner_id", ownerID, "error", err)
		return nil
	}
	return lo.Map(turns, func(t conversation.Turn, _ int) ai.Turn {
		return ai.Turn{Role: t.Role, Text: t.Text}
	})
}

func (s *Service) record(ctx context.Context, ownerID types.ID, userText, modelText string) {
	if err := s.log.Append(ctx, ownerID, conversation.Exchange(userText, modelText, s.now())...); err != nil {
		s.logger.Warn("conversation log append failed", "owner_id", ownerID, "error", err)
	}
}

func (s *Service) hints(ctx context.Context, message string) []maps.Place {
	if s.places == nil {
		return nil
	}
	dest := DetectDestination(message)
	if dest == "" {
		return nil
	}
	places, err := s.places.TopAttractions(ctx, dest)
	if err != nil {
		s.logger.Warn("destination hints unavailable", "destination", dest, "error", err)
		return nil
	}
	return places
}

var destinationPattern = regexp.MustCompile(
	`(?:^|\s)(?i:in|to|for|visit|à|en|au|aux|pour|vers|visiter)\s+(\p{Lu}[\p{L}'\-]+(?:\s+\p{Lu}[\p{L}'\-]+)*)`)

// DetectDestination returns the first capitalised place name introduced by a
// preposition ("à Lisbonne", "trip to New York"), or "".
func DetectDestination(message string) string {
	m := destinationPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

func formatHints(destination string, places []maps.Place) string {
	names := lo.Map(places, func(p maps.Place, _ int) string {
		return fmt.Sprintf("%s (%.1f★)", p.Name, p.Rating)
	})
	return fmt.Sprintf("\n\n[Lieux populaires à %s : %s]", destination, strings.Join(names, " ; "))
}

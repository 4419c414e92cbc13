package call

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/artinSha/RingApp-Backend/internal/llm"
	"github.com/artinSha/RingApp-Backend/internal/scenario"
	"github.com/artinSha/RingApp-Backend/internal/store"
)

const (
	transcribeTimeout = 30 * time.Second
	dialogueTimeout   = 20 * time.Second
	synthesizeTimeout = 30 * time.Second

	// openerFallback replaces an empty opener from the dialogue provider.
	openerFallback = "Let's begin. What's happening around you?"
	// clarificationLine replaces an empty mid-call reply.
	clarificationLine = "Sorry, I couldn't quite hear that. Could you say it again?"
)

// Service is the turn-state machine for practice calls. It owns the invariant
// that the highest-index turn is the only one that may still be waiting for a
// user reply, and it serializes operations per conversation id so concurrent
// submissions cannot interleave the read-modify-append sequence.
type Service struct {
	store      Store
	stt        Transcriber
	dialogue   Dialogue
	tts        Synthesizer
	transcoder Transcoder
	archive    Archiver
	catalog    *scenario.Catalog

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Deps bundles the collaborators for NewService. Transcoder and Archive are
// optional; the others are required.
type Deps struct {
	Store       Store
	Transcriber Transcriber
	Dialogue    Dialogue
	Synthesizer Synthesizer
	Transcoder  Transcoder
	Archive     Archiver
	Catalog     *scenario.Catalog
}

func NewService(d Deps) *Service {
	return &Service{
		store:      d.Store,
		stt:        d.Transcriber,
		dialogue:   d.Dialogue,
		tts:        d.Synthesizer,
		transcoder: d.Transcoder,
		archive:    d.Archive,
		catalog:    d.Catalog,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing one conversation's operations.
func (s *Service) lockFor(convID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[convID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[convID] = l
	}
	return l
}

// StartCall creates a conversation for the user, asks the dialogue provider
// for the scene-opening line, and stores it as turn 0 (open). A failed opener
// call degrades to a visible marker line instead of failing the start; an
// empty reply degrades to a fixed opener. When synthesis and an archive are
// available, the opener audio is uploaded and its URL returned.
func (s *Service) StartCall(ctx context.Context, userID, scenarioName string) (*StartResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id required: %w", ErrInvalidInput)
	}
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}

	key := s.catalog.ResolveKey(scenarioName)
	opening := s.openingLine(ctx, key)

	now := time.Now().UTC()
	conv := &store.Conversation{
		UserID:      userID,
		ScenarioKey: key,
		Turns: []store.Turn{{
			Index:     0,
			AIText:    opening,
			UserText:  nil,
			CreatedAt: now,
		}},
		CreatedAt: now,
	}
	convID, err := s.store.CreateConversation(ctx, conv)
	if err != nil {
		return nil, err
	}

	audioURL := s.archiveOpener(ctx, convID, opening)
	return &StartResult{ConversationID: convID, OpeningLine: opening, OpeningAudioURL: audioURL}, nil
}

func (s *Service) openingLine(ctx context.Context, key string) string {
	instruction := s.catalog.InstructionFor(key)
	prompt := s.catalog.OpenerPrompt(key)

	dctx, cancel := context.WithTimeout(ctx, dialogueTimeout)
	defer cancel()
	text, err := s.dialogue.Reply(dctx, instruction, prompt)
	if errors.Is(err, llm.ErrEmptyReply) {
		return openerFallback
	}
	if err != nil {
		log.Printf("opener generation failed for scenario %s: %v", key, err)
		return fmt.Sprintf("(error creating opener: %v)", err)
	}
	if strings.TrimSpace(text) == "" {
		return openerFallback
	}
	return text
}

// archiveOpener synthesizes and uploads the opening line when both providers
// are configured. Any failure degrades to an empty URL.
func (s *Service) archiveOpener(ctx context.Context, convID, opening string) string {
	if s.tts == nil || s.archive == nil {
		return ""
	}
	tctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()
	clip, err := s.tts.Synthesize(tctx, opening)
	if err != nil {
		log.Printf("opener synthesis failed for %s: %v", convID, err)
		return ""
	}
	url, err := s.archive.UploadAudio(fmt.Sprintf("conversations/%s/turn_0.mp3", convID), clip)
	if err != nil {
		log.Printf("opener upload failed for %s: %v", convID, err)
		return ""
	}
	return url
}

// ProcessAudio handles one user clip: transcribe it, close the open turn with
// the transcript, ask the dialogue provider for the next line, append it as a
// new open turn, and synthesize its audio. A broken turn order is flagged and
// survived, never fatal; transcription failures abort before any state
// changes; synthesis failures fail the request after the text is safely
// persisted.
func (s *Service) ProcessAudio(ctx context.Context, convID string, audio []byte, formatHint string) (*TurnResult, error) {
	if convID == "" || len(audio) == 0 {
		return nil, fmt.Errorf("conv_id and audio required: %w", ErrInvalidInput)
	}

	lock := s.lockFor(convID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.store.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}

	wav := audio
	if s.transcoder != nil && formatHint != "" && formatHint != "wav" {
		tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
		wav, err = s.transcoder.ToWAV16kMono(tctx, audio, formatHint)
		cancel()
		if err != nil {
			return nil, &ProviderError{Provider: "transcription", Err: err}
		}
		formatHint = "wav"
	}

	sctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	userText, err := s.stt.Transcribe(sctx, wav, formatHint)
	cancel()
	if err != nil {
		return nil, &ProviderError{Provider: "transcription", Err: err}
	}

	warning := false
	last := conv.LatestTurn()
	if last != nil && last.Open() {
		closed, err := s.store.CloseTurn(ctx, convID, last.Index, userText)
		if err != nil {
			return nil, err
		}
		if closed {
			last.UserText = &userText
		} else {
			// Lost the compare-and-set: someone closed this turn first.
			warning = true
			log.Printf("conversation %s: turn %d already closed, not overwriting", convID, last.Index)
		}
	} else {
		warning = true
		log.Printf("conversation %s: turn order violated (latest turn not open), appending anyway", convID)
	}

	transcript := BuildTranscript(conv.Turns)
	instruction := s.catalog.InstructionFor(conv.ScenarioKey)

	dctx, cancel := context.WithTimeout(ctx, dialogueTimeout)
	aiText, err := s.dialogue.Reply(dctx, instruction, transcript)
	cancel()
	if errors.Is(err, llm.ErrEmptyReply) {
		aiText = clarificationLine
	} else if err != nil {
		return nil, &ProviderError{Provider: "dialogue", Err: err}
	} else if strings.TrimSpace(aiText) == "" {
		aiText = clarificationLine
	}

	nextIndex := 0
	if last != nil {
		nextIndex = last.Index + 1
	}
	newTurn := store.Turn{Index: nextIndex, AIText: aiText, CreatedAt: time.Now().UTC()}
	if err := s.store.AppendTurn(ctx, convID, newTurn); err != nil {
		return nil, err
	}

	var clip []byte
	if s.tts != nil {
		tctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
		clip, err = s.tts.Synthesize(tctx, aiText)
		cancel()
		if err != nil {
			// Text state is already persisted; only this request fails.
			return nil, &ProviderError{Provider: "synthesis", Err: err}
		}
	}

	return &TurnResult{
		UserText:         userText,
		AIText:           aiText,
		AudioMP3:         clip,
		TurnOrderWarning: warning,
	}, nil
}

// EndCall finalizes the conversation: extract the learner's utterances under
// the character budget, run the evaluator, persist the feedback, and return
// it with the reshaped history. Evaluation failures degrade to a diagnostic
// feedback record carrying the raw text, so ending a call never fails on the
// provider. Calling it again re-evaluates and overwrites the stored feedback.
func (s *Service) EndCall(ctx context.Context, convID string) (*CloseResult, error) {
	if convID == "" {
		return nil, fmt.Errorf("conv_id required: %w", ErrInvalidInput)
	}

	lock := s.lockFor(convID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.store.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}

	utterances := ExtractUtterances(conv.Turns, maxUtteranceChars)
	sc, _ := s.catalog.Get(conv.ScenarioKey)
	payload := scenario.EvaluationPrompt(sc, utterances)

	fb := s.evaluate(ctx, convID, payload, len(utterances))
	if err := s.store.SetFeedback(ctx, convID, fb); err != nil {
		return nil, err
	}

	userLines, aiLines := splitLines(conv.Turns)
	return &CloseResult{Feedback: fb, UserLines: userLines, AILines: aiLines}, nil
}

func (s *Service) evaluate(ctx context.Context, convID, payload string, analyzed int) store.Feedback {
	dctx, cancel := context.WithTimeout(ctx, dialogueTimeout)
	defer cancel()
	raw, err := s.dialogue.Evaluate(dctx, scenario.EvaluatorInstruction, payload)
	if err != nil {
		log.Printf("conversation %s: evaluation failed: %v", convID, err)
		return store.Feedback{TurnsAnalyzed: analyzed, Raw: fmt.Sprintf("(evaluation failed: %v)", err)}
	}

	fb, err := ParseFeedback(raw)
	if err != nil {
		log.Printf("conversation %s: %v", convID, err)
		return store.Feedback{TurnsAnalyzed: analyzed, Raw: raw}
	}
	if fb.TurnsAnalyzed == 0 {
		fb.TurnsAnalyzed = analyzed
	}
	return fb
}

// Package reflection turns a journal entry into a short generated
// companion text. Generation never fails outwardly: transport errors
// are retried with exponential backoff, service rejections are logged
// once, and every dead end lands on a pre-written fallback text.
package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Config carries the tuning for the content-generation call. All
// values come from the environment (see internal/config).
type Config struct {
	APIURL          string
	Model           string
	APIKey          string
	Temperature     float64
	MaxOutputTokens int
	MaxRetries      int           // additional attempts after the first
	BackoffBase     time.Duration // wait unit; retry k sleeps base<<k
}

// Generator issues generateContent calls against a Gemini-style REST
// endpoint. The HTTP client, sleep function and random source are
// injectable so tests can run without a network or wall clock.
type Generator struct {
	cfg    Config
	client *http.Client
	sleep  func(time.Duration)
	pick   func(n int) int
}

func New(cfg Config) *Generator {
	return &Generator{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		sleep:  time.Sleep,
		pick:   rand.Intn,
	}
}

// statusError marks a non-2xx reply from the service. These are never
// retried; the service answered, it just refused.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("service returned status %d", e.code) }

// errNoContent marks a parseable reply that carried no usable text.
var errNoContent = errors.New("response contains no usable content")

// Generate returns a reflective companion text for entryText. The
// result is always a non-empty string: on success the extracted model
// output, otherwise one of the fallback texts.
func (g *Generator) Generate(ctx context.Context, entryText string) string {
	prompt := buildPrompt(entryText)
	attempts := g.cfg.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := g.call(ctx, prompt)
		if err == nil {
			return text
		}

		var se *statusError
		if errors.As(err, &se) {
			log.Printf("reflection: generation rejected (%v); using fallback", err)
			break
		}
		if errors.Is(err, errNoContent) {
			// Content was delivered, just unusable. Fall back quietly.
			break
		}

		// Transport-level failure: timeout, connection error, request error.
		if attempt == attempts {
			log.Printf("reflection: generation failed after %d attempts: %v; using fallback", attempts, err)
			break
		}
		wait := g.cfg.BackoffBase << attempt
		log.Printf("reflection: attempt %d failed: %v; retrying in %s", attempt, err, wait)
		g.sleep(wait)
	}

	return g.fallback()
}

// Request/response shapes for the generateContent endpoint. Only the
// fields this service reads or writes are modelled.

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genTuning    `json:"generationConfig"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type genTuning struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// call performs one generateContent request and extracts the single
// text field from the nested result structure.
func (g *Generator) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(genRequest{
		Contents: []genContent{{Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: genTuning{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(g.cfg.APIURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode}
	}

	var out genResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errNoContent
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errNoContent
	}
	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errNoContent
	}
	return text, nil
}

// buildPrompt asks for exactly one short piece, tonally matched to the
// entry.
func buildPrompt(entryText string) string {
	return fmt.Sprintf(`You are the warm, encouraging companion inside a personal journal.

A user just wrote this journal entry:
"""
%s
"""

Respond with exactly ONE of the following, chosen to suit the tone of the entry:
- a short poem
- a motivational quote
- a short humorous or dramatic story
- a one-act play

Keep it brief and emotionally responsive to what the user wrote.
Output only the piece itself, with no preamble and no explanation.`, entryText)
}

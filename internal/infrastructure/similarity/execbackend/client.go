// Package execbackend drives a similarity server through an external command.
//
// Each operation runs `<command> <op> --session NAME [--method M]`, writes a
// JSON request on stdin and reads a JSON response from stdout.
package execbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

const (
	defaultTimeout    = 5 * time.Minute
	defaultMaxResults = 100

	unsupportedCommandChars = `"'\`

	opTrain       = "train"
	opIndex       = "index"
	opFindSimilar = "find-similar"
)

// Config controls backend subprocess invocation.
type Config struct {
	// Command is split on whitespace into the program and its leading
	// arguments. Shell quoting is not interpreted.
	Command    string
	Session    string
	MaxResults int
	Timeout    time.Duration
}

// Runner executes the backend command and returns stdout/stderr text.
type Runner func(ctx context.Context, command string, args []string, stdin string) (string, string, error)

// Client implements usecase.SimilarityBackend by invoking an external command.
type Client struct {
	config Config
	run    Runner
}

// NewClient creates a client that runs commands with os/exec.
func NewClient(cfg Config) (Client, error) {
	return NewClientWithRunner(cfg, nil)
}

// NewClientWithRunner creates a client with a custom runner for tests.
func NewClientWithRunner(cfg Config, runner Runner) (Client, error) {
	normalized := normalizeConfig(cfg)
	if normalized.Command == "" {
		return Client{}, errors.New("backend command is empty")
	}
	if strings.ContainsAny(normalized.Command, unsupportedCommandChars) {
		return Client{}, fmt.Errorf("backend command %q: quoting and escapes are not supported; wrap the call in a script", normalized.Command)
	}
	if normalized.Session == "" {
		return Client{}, errors.New("session name is empty")
	}
	if runner == nil {
		runner = defaultRunner
	}
	return Client{
		config: normalized,
		run:    runner,
	}, nil
}

type wireDocument struct {
	ID      string         `json:"id"`
	Tokens  []string       `json:"tokens"`
	Payload corpus.Payload `json:"payload"`
}

type corpusRequest struct {
	Documents []wireDocument `json:"documents"`
}

type findRequest struct {
	Document   wireDocument `json:"document"`
	MaxResults int          `json:"max_results"`
}

type wireSimilar struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload corpus.Payload `json:"payload"`
}

type findResponse struct {
	Results []wireSimilar `json:"results"`
}

// Train sends the corpus to the backend's train operation.
func (c Client) Train(ctx context.Context, docs []corpus.Document, method string) error {
	_, err := c.call(ctx, opTrain, method, corpusRequest{Documents: toWire(docs)})
	return err
}

// Index sends documents to the backend's index operation.
func (c Client) Index(ctx context.Context, docs []corpus.Document) error {
	_, err := c.call(ctx, opIndex, "", corpusRequest{Documents: toWire(docs)})
	return err
}

// FindSimilar asks the backend for documents similar to doc, best first.
func (c Client) FindSimilar(ctx context.Context, doc corpus.Document) ([]corpus.Similar, error) {
	stdout, err := c.call(ctx, opFindSimilar, "", findRequest{
		Document:   wireDocument{ID: doc.ID, Tokens: nonNil(doc.Tokens), Payload: doc.Payload},
		MaxResults: c.config.MaxResults,
	})
	if err != nil {
		return nil, err
	}
	results, err := parseSimilar(stdout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opFindSimilar, err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > c.config.MaxResults {
		results = results[:c.config.MaxResults]
	}
	return results, nil
}

// Close is a no-op; every call runs its own process.
func (c Client) Close() error {
	return nil
}

func (c Client) call(ctx context.Context, op, method string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", op, err)
	}

	runCtx := ctx
	cancel := func() {}
	if c.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
	}
	defer cancel()

	command, args := c.commandLine(op, method)
	stdout, stderr, err := c.run(runCtx, command, args, string(body))
	if err != nil {
		reason := strings.TrimSpace(stderr)
		if reason == "" {
			return "", fmt.Errorf("backend %s failed: %w", op, err)
		}
		return "", fmt.Errorf("backend %s failed: %w: %s", op, err, reason)
	}
	return stdout, nil
}

func (c Client) commandLine(op, method string) (string, []string) {
	fields := strings.Fields(c.config.Command)
	args := append([]string(nil), fields[1:]...)
	args = append(args, op, "--session", c.config.Session)
	if strings.TrimSpace(method) != "" {
		args = append(args, "--method", strings.TrimSpace(method))
	}
	return fields[0], args
}

// parseSimilar accepts {"results":[{id,score,payload}]} or simserver's
// bare [[id, score, payload], ...] triples.
func parseSimilar(raw string) ([]corpus.Similar, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var resp findResponse
		if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out := make([]corpus.Similar, 0, len(resp.Results))
		for _, r := range resp.Results {
			out = append(out, corpus.Similar(r))
		}
		return out, nil
	}

	var triples [][]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &triples); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make([]corpus.Similar, 0, len(triples))
	for i, triple := range triples {
		if len(triple) < 2 {
			return nil, fmt.Errorf("result %d: want [id, score, payload]", i)
		}
		var s corpus.Similar
		if err := json.Unmarshal(triple[0], &s.ID); err != nil {
			return nil, fmt.Errorf("result %d id: %w", i, err)
		}
		if err := json.Unmarshal(triple[1], &s.Score); err != nil {
			return nil, fmt.Errorf("result %d score: %w", i, err)
		}
		if len(triple) > 2 && string(triple[2]) != "null" {
			if err := json.Unmarshal(triple[2], &s.Payload); err != nil {
				return nil, fmt.Errorf("result %d payload: %w", i, err)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func toWire(docs []corpus.Document) []wireDocument {
	out := make([]wireDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, wireDocument{ID: doc.ID, Tokens: nonNil(doc.Tokens), Payload: doc.Payload})
	}
	return out
}

func nonNil(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}

func normalizeConfig(cfg Config) Config {
	normalized := cfg
	normalized.Command = strings.TrimSpace(normalized.Command)
	normalized.Session = strings.TrimSpace(normalized.Session)
	if normalized.MaxResults <= 0 {
		normalized.MaxResults = defaultMaxResults
	}
	if normalized.Timeout <= 0 {
		normalized.Timeout = defaultTimeout
	}
	return normalized
}

func defaultRunner(ctx context.Context, command string, args []string, stdin string) (string, string, error) {
	cmd := exec.CommandContext(ctx, command, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

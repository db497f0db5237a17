package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServerConfig configures a provider backed by a running llama.cpp server.
type ServerConfig struct {
	BaseURL string
	APIKey  string
	// RequestTimeout bounds a single generation. Zero disables it.
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// ServerProvider talks to a llama.cpp server through its OpenAI-compatible
// endpoints, plus the native /tokenize endpoint.
type ServerProvider struct {
	cfg        ServerConfig
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewServerProvider constructs a server-backed provider.
func NewServerProvider(cfg ServerConfig) *ServerProvider {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0: every request carries its own context deadline.
	return &ServerProvider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: tr},
		log:        cfg.Logger,
	}
}

func (p *ServerProvider) Name() string { return "server" }

type modelsListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Load checks that the server is reachable and serves modelID. A server that
// lists exactly one model is assumed to serve whatever identifier was asked for.
func (p *ServerProvider) Load(ctx context.Context, modelID string) (Model, error) {
	ids, err := p.listModels(ctx)
	if err != nil {
		return nil, err
	}
	name := ""
	if len(ids) == 1 {
		name = ids[0]
	}
	for _, id := range ids {
		if id == modelID {
			name = id
		}
	}
	if name == "" {
		return nil, ErrModelNotFound(modelID)
	}
	p.log.Info().Str("provider", p.Name()).Str("model", modelID).Str("served_as", name).Msg("model attached")
	return &serverModel{p: p, id: modelID, served: name}, nil
}

func (p *ServerProvider) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("llama server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpStatusError("list models", resp)
	}
	var out modelsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode models list: %w", err)
	}
	ids := make([]string, 0, len(out.Data))
	for _, d := range out.Data {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// healthy reports whether GET /v1/models answers 2xx within timeout.
func (p *ServerProvider) healthy(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := p.listModels(ctx)
	return err == nil
}

func (p *ServerProvider) authorize(req *http.Request) {
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
}

func httpStatusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("llama server %s: %s: %s", op, resp.Status, strings.TrimSpace(string(b)))
}

// serverModel is a model served by a llama.cpp server.
type serverModel struct {
	p      *ServerProvider
	id     string
	served string

	mu     sync.RWMutex
	closed bool
}

func (m *serverModel) ID() string { return m.id }

func (m *serverModel) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *serverModel) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

type tokenizeRequest struct {
	Content    string `json:"content"`
	AddSpecial bool   `json:"add_special"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

func (m *serverModel) Tokenize(ctx context.Context, text string) ([]int, error) {
	if m.isClosed() {
		return nil, errModelClosed
	}
	body, _ := json.Marshal(tokenizeRequest{Content: text, AddSpecial: true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.p.baseURL+"/tokenize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	m.p.authorize(req)
	resp, err := m.p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpStatusError("tokenize", resp)
	}
	var out tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tokenize: %w", err)
	}
	return out.Tokens, nil
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model       string   `json:"model,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float32  `json:"temperature"`
	N           int      `json:"n,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        int      `json:"seed,omitempty"`
	Stream      bool     `json:"stream"`
	// Not standard OpenAI; llama.cpp servers accept it, others ignore it.
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

type streamChoice struct {
	Text  string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

func (m *serverModel) Generate(ctx context.Context, prompt string, p Params) (Result, error) {
	if m.isClosed() {
		return Result{}, errModelClosed
	}
	if m.p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.p.cfg.RequestTimeout)
		defer cancel()
	}
	n := p.NumReturn
	if n <= 0 {
		n = 1
	}
	payload := completionRequest{
		Model:         m.served,
		Prompt:        prompt,
		MaxTokens:     p.MaxTokens,
		Temperature:   p.EffectiveTemperature(),
		N:             n,
		Stop:          p.Stop,
		Seed:          p.Seed,
		Stream:        true,
		RepeatPenalty: p.RepeatPenalty,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.p.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	m.p.authorize(req)
	resp, err := m.p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, httpStatusError("completion", resp)
	}
	return m.readStream(ctx, resp.Body)
}

// readStream consumes a Server-Sent Events completion stream. Lines that are
// bare JSON objects (non-SSE servers) are accepted too.
func (m *serverModel) readStream(ctx context.Context, body io.Reader) (Result, error) {
	r := bufio.NewReader(body)
	var (
		res Result
		b   strings.Builder
	)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, ":") {
			data := line
			if strings.HasPrefix(strings.ToLower(data), "data:") {
				data = strings.TrimSpace(data[len("data:"):])
			}
			if data == "[DONE]" {
				break
			}
			var chunk streamChunk
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr == nil {
				if len(chunk.Choices) > 0 {
					c := chunk.Choices[0]
					frag := c.Text
					if frag == "" {
						frag = c.Delta.Content
					}
					if frag != "" {
						b.WriteString(frag)
						res.CompletionTokens++
					}
					if c.FinishReason != "" {
						res.FinishReason = c.FinishReason
					}
				} else {
					// native llama.cpp stream: {"content": "..."}
					var native struct {
						Content string `json:"content"`
					}
					if json.Unmarshal([]byte(data), &native) == nil && native.Content != "" {
						b.WriteString(native.Content)
						res.CompletionTokens++
					}
				}
				if chunk.Usage != nil {
					res.PromptTokens = chunk.Usage.PromptTokens
					res.CompletionTokens = chunk.Usage.CompletionTokens
				}
			} else {
				m.p.log.Debug().Str("provider", m.p.Name()).Str("line", line).Msg("unknown stream line")
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("read completion stream: %w", err)
		}
	}
	res.Text = b.String()
	if res.FinishReason == "" {
		res.FinishReason = "stop"
	}
	return res, nil
}

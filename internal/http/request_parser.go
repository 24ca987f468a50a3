package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rupaiya/internal/assistant"
	"rupaiya/internal/core"
	"rupaiya/internal/ledger"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as trimmed strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object and as form
// data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: invalid JSON body", errBadRequest)
		}
		return p.err
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		p.err = fmt.Errorf("%w: invalid form body", errBadRequest)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a field from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}


func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// recordFields holds the parts shared by every new record. Amount and date
// errors are reported later by validation.
func (p *RequestBodyParser) recordFields() (core.Date, core.Money, error) {
	d, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Date{}, core.Money{}, err
	}
	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		return core.Date{}, core.Money{}, err
	}
	return d, amount, nil
}

func parseIncomeInput(p *RequestBodyParser) (ledger.IncomeInput, error) {
	d, amount, err := p.recordFields()
	if err != nil {
		return ledger.IncomeInput{}, err
	}
	return ledger.IncomeInput{Date: d, Amount: amount, Source: p.Get("source"), Description: p.Get("description")}, nil
}

func parseExpenseInput(p *RequestBodyParser) (ledger.ExpenseInput, error) {
	d, amount, err := p.recordFields()
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	return ledger.ExpenseInput{
		Date:        d,
		Amount:      amount,
		Category:    p.Get("category"),
		Type:        p.Get("type"),
		Description: p.Get("description"),
	}, nil
}

func parseInvestmentInput(p *RequestBodyParser) (ledger.InvestmentInput, error) {
	d, amount, err := p.recordFields()
	if err != nil {
		return ledger.InvestmentInput{}, err
	}
	return ledger.InvestmentInput{Date: d, Amount: amount, Type: p.Get("type"), Description: p.Get("description")}, nil
}

type chatRequest struct {
	Question string              `json:"question"`
	History  []assistant.Message `json:"history"`
}

func parseChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return chatRequest{}, fmt.Errorf("%w: invalid JSON body", errBadRequest)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return chatRequest{}, fmt.Errorf("%w: question is required", errBadRequest)
	}
	return req, nil
}

// parseDay reads ?date=YYYY-MM-DD, defaulting to today.
func parseDay(q url.Values, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(q.Get("date"))
	if v == "" {
		return core.DateOf(now), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return d, nil
}

// parseYear reads ?year=, defaulting to the current year.
func parseYear(q url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(q.Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
	}
	return y, nil
}

func parseTimeframe(q url.Values) (core.Timeframe, error) {
	tf, err := core.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return tf, nil
}

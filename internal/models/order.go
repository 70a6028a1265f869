package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ResolutionStatus represents how far an order line has been matched to the menu
type ResolutionStatus string

const (
	ResolutionUnresolved ResolutionStatus = "unresolved"
	ResolutionMatched    ResolutionStatus = "matched"
	ResolutionAmbiguous  ResolutionStatus = "ambiguous"
	ResolutionRejected   ResolutionStatus = "rejected"
)

// ExtractionSource records which strategy produced a draft
type ExtractionSource string

const (
	SourceLLM   ExtractionSource = "llm"
	SourceRules ExtractionSource = "rules"
)

// Candidate is a ranked suggestion attached to an order line or issue
type Candidate struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Quantity int     `json:"quantity,omitempty"`
}

// OrderLine represents one requested item inside a draft order
type OrderLine struct {
	RawText       string           `json:"raw_text"`
	ItemName      string           `json:"item_name,omitempty"`
	Quantity      int              `json:"quantity"`
	Modifications []string         `json:"modifications,omitempty"`
	Status        ResolutionStatus `json:"status"`
	Candidates    []Candidate      `json:"candidates,omitempty"`
}

// Clone returns a deep copy of the line
func (l OrderLine) Clone() OrderLine {
	out := l
	out.Modifications = append([]string(nil), l.Modifications...)
	out.Candidates = append([]Candidate(nil), l.Candidates...)
	return out
}

// SameSelection reports whether two matched lines name the same item with the same modifications
func (l OrderLine) SameSelection(other OrderLine) bool {
	if l.Status != ResolutionMatched || other.Status != ResolutionMatched {
		return false
	}
	if !strings.EqualFold(l.ItemName, other.ItemName) || len(l.Modifications) != len(other.Modifications) {
		return false
	}
	for i := range l.Modifications {
		if !strings.EqualFold(l.Modifications[i], other.Modifications[i]) {
			return false
		}
	}
	return true
}

// DraftOrder represents an order under construction during a conversation
type DraftOrder struct {
	RoomNumber           int              `json:"room_number,omitempty"`
	Lines                []OrderLine      `json:"lines"`
	Remainder            []string         `json:"remainder,omitempty"`
	SourceUtterance      string           `json:"source_utterance,omitempty"`
	ExtractionConfidence float64          `json:"extraction_confidence"`
	Source               ExtractionSource `json:"source,omitempty"`
}

// Clone returns a deep copy of the draft
func (d *DraftOrder) Clone() *DraftOrder {
	if d == nil {
		return nil
	}
	out := *d
	out.Lines = make([]OrderLine, len(d.Lines))
	for i, line := range d.Lines {
		out.Lines[i] = line.Clone()
	}
	out.Remainder = append([]string(nil), d.Remainder...)
	return &out
}

// IsEmpty reports whether the draft has no lines
func (d *DraftOrder) IsEmpty() bool {
	return d == nil || len(d.Lines) == 0
}

// Merge appends new lines, folding quantities into identical existing selections
func (d *DraftOrder) Merge(lines []OrderLine) {
	for _, line := range lines {
		merged := false
		for i := range d.Lines {
			if d.Lines[i].SameSelection(line) {
				d.Lines[i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			d.Lines = append(d.Lines, line.Clone())
		}
	}
}

// RemoveLine drops the line at index i
func (d *DraftOrder) RemoveLine(i int) {
	if i < 0 || i >= len(d.Lines) {
		return
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
}

// OrderStatus represents the possible states of a confirmed order
type OrderStatus string

const (
	OrderStatusQueued    OrderStatus = "queued"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Cancellable reports whether an order in this status may still be cancelled
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusQueued || s == OrderStatusPreparing
}

// Next returns the kitchen status that follows s
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusQueued:
		return OrderStatusPreparing, true
	case OrderStatusPreparing:
		return OrderStatusCompleted, true
	default:
		return s, false
	}
}

// ConfirmedLine represents a priced line of a confirmed order
type ConfirmedLine struct {
	ItemName      string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	Modifications []string        `json:"modifications,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LinePrice     decimal.Decimal `json:"line_price"`
}

// ConfirmedOrder represents a submitted room service order
type ConfirmedOrder struct {
	OrderID     string          `json:"order_id"`
	RoomNumber  int             `json:"room_number"`
	Lines       []ConfirmedLine `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Status      OrderStatus     `json:"status"`
}

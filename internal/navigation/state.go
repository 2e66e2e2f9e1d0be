// Package navigation holds the date-range state a report or list view
// browses with. The derived range always matches (Granularity,
// ReferenceDate) unless a custom range was applied explicitly.
package navigation

import (
	"errors"
	"fmt"
	"time"

	"dompet/internal/period"
)

// Default granularities for the two views that own a State.
const (
	ReportsGranularity = period.Month
	ListGranularity    = period.Day
)

var ErrInvalidAction = errors.New("invalid navigation action")

// State is one view's navigation tuple.
type State struct {
	Granularity       period.Granularity `json:"granularity"`
	ReferenceDate     time.Time          `json:"reference_date"`
	CustomRangeActive bool               `json:"custom_range_active"`
	RangeStart        time.Time          `json:"range_start"`
	RangeEnd          time.Time          `json:"range_end"`
}

// NewState starts at now with the given granularity.
func NewState(g period.Granularity, now time.Time) State {
	s := State{Granularity: g, ReferenceDate: now}
	s.recompute()
	return s
}

// Range returns the active range.
func (s State) Range() period.Range {
	return period.Range{Start: s.RangeStart, End: s.RangeEnd}
}

func (s *State) recompute() {
	r := period.For(s.Granularity, s.ReferenceDate)
	s.RangeStart, s.RangeEnd = r.Start, r.End
	s.CustomRangeActive = false
}

// SetGranularity switches granularity and drops any custom range.
func (s *State) SetGranularity(g period.Granularity) {
	s.Granularity = g
	s.recompute()
}

// Navigate steps one period in dir. Navigating abandons a custom range.
func (s *State) Navigate(dir period.Direction) {
	s.ReferenceDate = period.Shift(s.Granularity, s.ReferenceDate, dir)
	s.recompute()
}

// ApplyCustomRange overrides the derived range. ReferenceDate is untouched.
func (s *State) ApplyCustomRange(start, end time.Time) {
	r := period.Custom(start, end)
	s.RangeStart, s.RangeEnd = r.Start, r.End
	s.CustomRangeActive = true
}

// ResetToToday moves the reference date to now.
func (s *State) ResetToToday(now time.Time) {
	s.ReferenceDate = now
	s.recompute()
}

// Normalize repairs a state received from a client: an unknown granularity
// falls back to fallback, a zero reference date becomes now, and the range
// is rederived unless a custom range is active and well formed.
func (s *State) Normalize(fallback period.Granularity, now time.Time) {
	if !s.Granularity.IsValid() {
		s.Granularity = fallback
	}
	if s.ReferenceDate.IsZero() {
		s.ReferenceDate = now
	}
	s.ReferenceDate = s.ReferenceDate.In(time.Local)
	if s.CustomRangeActive && !s.RangeStart.IsZero() && !s.RangeEnd.IsZero() {
		s.ApplyCustomRange(s.RangeStart.In(time.Local), s.RangeEnd.In(time.Local))
		return
	}
	s.recompute()
}

// ActionType names a transition.
type ActionType string

const (
	ActionSetGranularity   ActionType = "set_granularity"
	ActionNavigate         ActionType = "navigate"
	ActionApplyCustomRange ActionType = "apply_custom_range"
	ActionResetToToday     ActionType = "reset_to_today"
)

// Action is a serialisable transition request.
type Action struct {
	Type        ActionType `json:"type"`
	Granularity string     `json:"granularity,omitempty"`
	Direction   string     `json:"direction,omitempty"`
	Start       string     `json:"start,omitempty"`
	End         string     `json:"end,omitempty"`
}

// Apply runs a on s. Invalid actions leave s unchanged.
func (s *State) Apply(a Action, now time.Time, parseDate func(string) (time.Time, error)) error {
	switch a.Type {
	case ActionSetGranularity:
		g, err := period.ParseGranularity(a.Granularity)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		s.SetGranularity(g)
	case ActionNavigate:
		dir, err := period.ParseDirection(a.Direction)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		s.Navigate(dir)
	case ActionApplyCustomRange:
		start, err := parseDate(a.Start)
		if err != nil {
			return fmt.Errorf("%w: start: %v", ErrInvalidAction, err)
		}
		end, err := parseDate(a.End)
		if err != nil {
			return fmt.Errorf("%w: end: %v", ErrInvalidAction, err)
		}
		s.ApplyCustomRange(start, end)
	case ActionResetToToday:
		s.ResetToToday(now)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}

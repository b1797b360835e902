package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeFormat is the accepted layout for session start times.
const TimeFormat = "15:04"

// DefaultSessionType is assigned when a session is created without a type.
const DefaultSessionType = "Typeless"

// ConferenceSession is owned by its conference (the key parent).
// StartTimeSlot is derived once from StartTime at creation; it is a stored
// projection of the start hour, never settable on its own.
type ConferenceSession struct {
	Key *Key `json:"-"`

	Name          string     `json:"name"`
	Type          string     `json:"type"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	StartTime     string     `json:"startTime"`
	StartTimeSlot int        `json:"startTimeSlot"`
	Duration      int        `json:"duration"`
	SpeakerKey    string     `json:"speakerKey"`
	Highlights    string     `json:"highlights"`
}

func (s *ConferenceSession) EntityKey() *Key     { return s.Key }
func (s *ConferenceSession) SetEntityKey(k *Key) { s.Key = k }

// SessionInput carries the caller-supplied fields for creating a session.
// StartDate uses DateFormat, StartTime uses TimeFormat, SpeakerKey is a
// websafe speaker key.
type SessionInput struct {
	Name       string
	Type       string
	StartDate  string
	StartTime  string
	Duration   int
	SpeakerKey string
	Highlights string
}

// NewSession builds a session from input. All required fields must be
// present and the date/time strings must parse; the start-hour slot is
// computed here and never recomputed.
func NewSession(key *Key, in SessionInput) (*ConferenceSession, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.StartTime == "" {
		missing = append(missing, "startTime")
	}
	if in.StartDate == "" {
		missing = append(missing, "startDate")
	}
	if in.Duration == 0 {
		missing = append(missing, "duration")
	}
	if in.SpeakerKey == "" {
		missing = append(missing, "speakerKey")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s are required", ErrBadRequest, strings.Join(missing, ", "))
	}

	start, err := ParseTimeOfDay(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: the date and time need to be properly formatted, ex: 2015-12-31, 14:59", ErrBadRequest)
	}
	date, err := ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: the date and time need to be properly formatted, ex: 2015-12-31, 14:59", ErrBadRequest)
	}

	typ := in.Type
	if typ == "" {
		typ = DefaultSessionType
	}

	return &ConferenceSession{
		Key:           key,
		Name:          in.Name,
		Type:          typ,
		StartDate:     &date,
		StartTime:     start.Format(TimeFormat),
		StartTimeSlot: start.Hour(),
		Duration:      in.Duration,
		SpeakerKey:    in.SpeakerKey,
		Highlights:    in.Highlights,
	}, nil
}

// ParseTimeOfDay parses a TimeFormat string, ignoring anything past the
// minutes.
func ParseTimeOfDay(s string) (time.Time, error) {
	if len(s) > len(TimeFormat) {
		s = s[:len(TimeFormat)]
	}
	return time.Parse(TimeFormat, s)
}

// TimeToMinutes converts a "HH:MM" string to total minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesToTimeString converts minutes since midnight back to "HH:MM".
func MinutesToTimeString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied when a conference is created without these fields.
var (
	DefaultCity   = "Default City"
	DefaultTopics = []string{"Default", "Topic"}
)

// DateFormat is the accepted layout for conference and session dates.
const DateFormat = "2006-01-02"

// Conference is owned by the organizer's profile (its key parent).
// Invariant: 0 <= SeatsAvailable <= MaxAttendees; the seat count is only
// mutated by the registration engine's atomic operations.
type Conference struct {
	Key *Key `json:"-"`

	Name            string     `json:"name"`
	Description     string     `json:"description"`
	OrganizerUserID string     `json:"organizerUserId"`
	Topics          []string   `json:"topics"`
	City            string     `json:"city"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Month           int        `json:"month"`
	MaxAttendees    int        `json:"maxAttendees"`
	SeatsAvailable  int        `json:"seatsAvailable"`
}

func (c *Conference) EntityKey() *Key     { return c.Key }
func (c *Conference) SetEntityKey(k *Key) { c.Key = k }

// ConferenceInput carries the caller-supplied fields for creating or
// updating a conference. Date fields use DateFormat.
type ConferenceInput struct {
	Name         string
	Description  string
	Topics       []string
	City         string
	StartDate    string
	EndDate      string
	MaxAttendees int
}

// NewConference builds a conference from input, applying defaults, deriving
// the month from the start date, and seeding the seat count from the
// attendee cap. The key must be allocated by the caller beforehand.
func NewConference(key *Key, organizerID string, in ConferenceInput) (*Conference, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: conference 'name' field required", ErrBadRequest)
	}

	conf := &Conference{
		Key:             key,
		Name:            in.Name,
		Description:     in.Description,
		OrganizerUserID: organizerID,
		Topics:          in.Topics,
		City:            in.City,
		MaxAttendees:    in.MaxAttendees,
	}
	if conf.City == "" {
		conf.City = DefaultCity
	}
	if len(conf.Topics) == 0 {
		conf.Topics = append([]string(nil), DefaultTopics...)
	}

	if in.StartDate != "" {
		start, err := ParseDate(in.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: startDate must be formatted like 2015-12-31", ErrBadRequest)
		}
		conf.StartDate = &start
		conf.Month = int(start.Month())
	}
	if in.EndDate != "" {
		end, err := ParseDate(in.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: endDate must be formatted like 2015-12-31", ErrBadRequest)
		}
		conf.EndDate = &end
	}

	// Every seat starts open.
	if conf.MaxAttendees > 0 {
		conf.SeatsAvailable = conf.MaxAttendees
	}
	return conf, nil
}

// ParseDate parses a DateFormat string, ignoring anything past the date.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateFormat) {
		s = s[:len(DateFormat)]
	}
	return time.Parse(DateFormat, s)
}

// Package magister holds the read-only record types returned by the Magister
// portal API, plus the client interface and error taxonomy the monitor core
// consumes. Field names mirror the Magister wire format (Dutch JSON keys).
package magister

import (
	"strings"
	"time"
)

// Subject is the school subject a grade belongs to.
type Subject struct {
	Code        string `json:"code"`
	Description string `json:"omschrijving"`
}

// Grade is a single result from the "laatste cijfers" endpoint.
type Grade struct {
	ID          int64     `json:"kolomId"`
	Description string    `json:"omschrijving"`
	EnteredAt   time.Time `json:"ingevoerdOp"`
	Subject     Subject   `json:"vak"`
	Value       string    `json:"waarde"`
	Sufficient  bool      `json:"isVoldoende"`
}

// Appointment is one schedule item. Omschrijving, Lokatie and Inhoud are
// optional on the wire; nil means "absent", and the accessor methods below
// substitute an empty string.
type Appointment struct {
	ID          int64     `json:"Id"`
	Start       time.Time `json:"Start"`
	End         time.Time `json:"Einde"`
	Description *string   `json:"Omschrijving"`
	Location    *string   `json:"Lokatie"`
	Content     *string   `json:"Inhoud"`
	InfoType    int       `json:"InfoType"`
	Completed   bool      `json:"Afgerond"`
}

// DisplayName returns the appointment description, or an empty string when
// the portal omitted it.
func (a Appointment) DisplayName() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// LocationName returns the location, or an empty string when absent.
func (a Appointment) LocationName() string {
	if a.Location == nil {
		return ""
	}
	return *a.Location
}

// ContentText returns the free-text content (homework etc.), or an empty
// string when absent.
func (a Appointment) ContentText() string {
	if a.Content == nil {
		return ""
	}
	return *a.Content
}

// HasHomework reports whether the appointment carries content text.
func (a Appointment) HasHomework() bool {
	return a.Content != nil && *a.Content != ""
}

// MessageFolder is a mailbox folder. The inbox is identified by name, see
// IsInbox.
type MessageFolder struct {
	ID     int64  `json:"id"`
	Name   string `json:"naam"`
	Unread int    `json:"aantalOngelezen"`
}

// IsInbox reports whether the folder is the student's "Postvak IN".
func (f MessageFolder) IsInbox() bool {
	return strings.Contains(f.Name, "Postvak IN")
}

// Sender is the originator of a message.
type Sender struct {
	Name string `json:"naam"`
}

// Message is a single inbox message.
type Message struct {
	ID      int64     `json:"id"`
	Subject string    `json:"onderwerp"`
	SentAt  time.Time `json:"verzondenOp"`
	Read    bool      `json:"isGelezen"`
	Sender  Sender    `json:"afzender"`
}

// SenderName returns the sender display name, or "Unknown" when the portal
// sent no sender block.
func (m Message) SenderName() string {
	if m.Sender.Name == "" {
		return "Unknown"
	}
	return m.Sender.Name
}

// Assignment is a handed-out task with a deadline. Status is optional on the
// wire; when present it overrides the Closed flag (status >= 3 means the
// assignment is no longer open).
type Assignment struct {
	ID       int64     `json:"Id"`
	Title    string    `json:"Titel"`
	Deadline time.Time `json:"InleverenVoor"`
	Closed   bool      `json:"Afgesloten"`
	Graded   bool      `json:"Beoordeeld"`
	Status   *int      `json:"Status"`
}

// IsOpen reports whether the assignment still accepts work.
func (a Assignment) IsOpen() bool {
	if a.Status != nil {
		return *a.Status < 3
	}
	return !a.Closed
}

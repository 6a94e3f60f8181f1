package mcws

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Outcome classifies how a gateway call ended.
type Outcome int

const (
	// OutcomeOK means the device answered with Status="OK".
	OutcomeOK Outcome = iota
	// OutcomeFailed means the device answered but rejected the command.
	OutcomeFailed
	// OutcomeTransport means no usable answer was received.
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	case OutcomeTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Field is a single named value from a Response envelope.
type Field struct {
	Name  string
	Value string
}

// Response is the decoded result of one gateway call.
type Response struct {
	Outcome Outcome
	Status  string
	Fields  []Field
	Err     error
}

// OK reports whether the device accepted the call.
func (r Response) OK() bool {
	return r.Outcome == OutcomeOK
}

// Field returns the last value reported under name.
func (r Response) Field(name string) (string, bool) {
	value, found := "", false
	for _, f := range r.Fields {
		if f.Name == name {
			value, found = f.Value, true
		}
	}
	return value, found
}

// Int returns the named field parsed as an integer.
func (r Response) Int(name string) (int, bool) {
	raw, ok := r.Field(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

type xmlResponse struct {
	XMLName xml.Name  `xml:"Response"`
	Status  string    `xml:"Status,attr"`
	Items   []xmlItem `xml:"Item"`
}

type xmlItem struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

func (x xmlResponse) fields() []Field {
	fields := make([]Field, 0, len(x.Items))
	for _, item := range x.Items {
		if item.Name == "" {
			continue
		}
		fields = append(fields, Field{Name: item.Name, Value: strings.TrimSpace(item.Value)})
	}
	return fields
}

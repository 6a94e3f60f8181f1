package testsupport

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// DefaultChart is the chart name used by NewConfig and NewSimulator.
const DefaultChart = "Calibration Patches"

// SimFile is a library entry served by Files/Search.
type SimFile struct {
	Key     string
	Name    string
	Episode string
}

// SimRequest records one request received by the simulator.
type SimRequest struct {
	Path   string
	Params url.Values
}

// Simulator is an in-process MCWS device backed by httptest. It models one
// zone, a playlist holding at most one file, fullscreen mode, and the OSD.
type Simulator struct {
	Server   *httptest.Server
	Username string
	Password string

	mu        sync.Mutex
	files     []SimFile
	zone      int
	loaded    *SimFile
	stateCode int
	position  int
	mode      int
	osd       bool
	requests  []SimRequest
	// stuckPosition, when >= 0, is reported instead of the seek target.
	stuckPosition int
	// idleName is reported as Name while nothing is loaded.
	idleName string
}

// SimOption customizes a Simulator.
type SimOption func(*Simulator)

// WithCredentials requires basic authentication on every request.
func WithCredentials(username, password string) SimOption {
	return func(s *Simulator) {
		s.Username = username
		s.Password = password
	}
}

// WithFiles replaces the default library.
func WithFiles(files ...SimFile) SimOption {
	return func(s *Simulator) {
		s.files = files
	}
}

// WithActiveZone sets the zone the device reports initially.
func WithActiveZone(zone int) SimOption {
	return func(s *Simulator) {
		s.zone = zone
	}
}

// WithStuckPosition makes position reads always report position.
func WithStuckPosition(position int) SimOption {
	return func(s *Simulator) {
		s.stuckPosition = position
	}
}

// WithIdleName sets the Name reported while nothing is loaded.
func WithIdleName(name string) SimOption {
	return func(s *Simulator) {
		s.idleName = name
	}
}

// NewSimulator starts a simulator serving DefaultChart in both variants and
// registers its shutdown with t.
func NewSimulator(t testing.TB, opts ...SimOption) *Simulator {
	t.Helper()

	s := &Simulator{
		files: []SimFile{
			{Key: "101", Name: DefaultChart, Episode: "sdr"},
			{Key: "102", Name: DefaultChart, Episode: "hdr"},
		},
		stuckPosition: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// Address returns host:port of the simulator.
func (s *Simulator) Address() string {
	return strings.TrimPrefix(s.Server.URL, "http://")
}

// Requests returns a copy of the recorded requests.
func (s *Simulator) Requests() []SimRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimRequest(nil), s.requests...)
}

// Paths returns the recorded request paths in order.
func (s *Simulator) Paths() []string {
	reqs := s.Requests()
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Path)
	}
	return out
}

// Snapshot reports the loaded file name, state code, position, display mode, and OSD flag.
func (s *Simulator) Snapshot() (name string, stateCode, position, mode int, osd bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		name = s.loaded.Name
	}
	return name, s.stateCode, s.position, s.mode, s.osd
}

type simItem struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

type simResponse struct {
	XMLName xml.Name  `xml:"Response"`
	Status  string    `xml:"Status,attr"`
	Items   []simItem `xml:"Item"`
}

func (s *Simulator) handle(w http.ResponseWriter, r *http.Request) {
	if s.Username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	path := strings.TrimPrefix(r.URL.Path, "/MCWS/v1/")
	params := r.URL.Query()

	s.mu.Lock()
	s.requests = append(s.requests, SimRequest{Path: path, Params: params})
	s.mu.Unlock()

	if path == "Files/Search" {
		s.search(w, params)
		return
	}

	items, ok := s.dispatch(path, params)
	status := "OK"
	if !ok {
		status = "Failure"
	}
	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(simResponse{Status: status, Items: items})
}

func (s *Simulator) dispatch(path string, params url.Values) ([]simItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zone := params.Get("Zone"); zone != "" && path != "Playback/SetZone" {
		if n, err := strconv.Atoi(zone); err != nil || n != s.zone {
			return nil, false
		}
	}

	switch path {
	case "Authenticate":
		return []simItem{{Name: "Token", Value: "sim-token"}}, true
	case "Playback/Info":
		name := s.idleName
		key := "-1"
		if s.loaded != nil {
			name = s.loaded.Name
			key = s.loaded.Key
		}
		return []simItem{
			{Name: "ZoneID", Value: strconv.Itoa(s.zone)},
			{Name: "State", Value: strconv.Itoa(s.stateCode)},
			{Name: "FileKey", Value: key},
			{Name: "Name", Value: name},
		}, true
	case "Playback/SetZone":
		n, err := strconv.Atoi(params.Get("Zone"))
		if err != nil {
			return nil, false
		}
		s.zone = n
		return nil, true
	case "Playback/Play":
		if s.loaded == nil {
			return nil, false
		}
		s.stateCode = 2
		return nil, true
	case "Playback/Pause":
		if s.loaded == nil {
			return nil, false
		}
		if params.Get("State") == "1" {
			s.stateCode = 1
		}
		return nil, true
	case "Playback/ClearPlaylist":
		s.loaded = nil
		s.stateCode = 0
		s.position = 0
		return nil, true
	case "Playback/PlayByKey":
		for i := range s.files {
			if s.files[i].Key == params.Get("Key") {
				s.loaded = &s.files[i]
				s.stateCode = 2
				s.position = 0
				return nil, true
			}
		}
		return nil, false
	case "Playback/Position":
		if raw := params.Get("Position"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || s.loaded == nil {
				return nil, false
			}
			s.position = n
			return nil, true
		}
		pos := s.position
		if s.stuckPosition >= 0 {
			pos = s.stuckPosition
		}
		return []simItem{{Name: "Position", Value: strconv.Itoa(pos)}}, true
	case "UserInterface/Info":
		return []simItem{
			{Name: "Mode", Value: strconv.Itoa(s.mode)},
			{Name: "InternalMode", Value: strconv.Itoa(s.mode)},
		}, true
	case "Control/MCC":
		if params.Get("Command") == "22000" && params.Get("Parameter") == "2" {
			s.mode = 2
		}
		return nil, true
	case "UserInterface/OSD":
		s.osd = params.Get("On") == "1"
		return nil, true
	default:
		return nil, false
	}
}

var queryTerm = regexp.MustCompile(`\[Name\]=\[(.*?)\].*\[Episode\]=(\w+)`)

func (s *Simulator) search(w http.ResponseWriter, params url.Values) {
	match := queryTerm.FindStringSubmatch(params.Get("Query"))
	if params.Get("Action") != "json" || match == nil {
		http.Error(w, fmt.Sprintf("unsupported query %q", params.Get("Query")), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	results := []map[string]string{}
	for _, f := range s.files {
		if f.Name == match[1] && f.Episode == match[2] {
			results = append(results, map[string]string{"Key": f.Key})
		}
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

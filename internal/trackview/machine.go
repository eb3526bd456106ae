// Package trackview drives the track list shown for one account over a date
// range: it resolves who is asking, picks the endpoint the caller's role
// allows, segments the returned points and publishes every state change.
package trackview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"tracker-parent/internal/gateway"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/session"
	"tracker-parent/internal/shared/geo"
	"tracker-parent/internal/shared/timeutil"
	"tracker-parent/internal/tracking"
	"tracker-parent/internal/trip"
)

var (
	ErrForbidden  = errors.New("You can only view your own tracks.")
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	ErrNoTrack    = errors.New("track not found")
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseDone    Phase = "done"
	PhaseError   Phase = "error"
)

type SessionSource interface {
	Resolve(ctx context.Context) (session.Session, error)
}

type LocationFetcher interface {
	GetLocationsByDateTime(ctx context.Context, requester session.Session, username, fromISO, toISO string) ([]tracking.Location, error)
	GetLocationsByDateTimeWithElevatedAccess(ctx context.Context, requester session.Session, username, fromISO, toISO string) ([]tracking.Location, error)
}

// Notifier receives every committed transition as JSON.
type Notifier interface {
	Broadcast(topic string, payload []byte)
}

// Request selects whose tracks to show. An empty Target is the signed-in
// account. Zero dates default to today; a zero To means the same day as From.
type Request struct {
	Target string    `json:"target"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

type State struct {
	Phase      Phase        `json:"phase"`
	Generation uint64       `json:"generation"`
	RequestID  string       `json:"request_id,omitempty"`
	Target     string       `json:"target,omitempty"`
	Elevated   bool         `json:"elevated"`
	Tracks     []trip.Track `json:"tracks"`
	Error      string       `json:"error,omitempty"`
}

// Event is the broadcast form of a State: track contents are summarised.
type Event struct {
	Phase      Phase          `json:"phase"`
	Generation uint64         `json:"generation"`
	RequestID  string         `json:"request_id,omitempty"`
	Target     string         `json:"target,omitempty"`
	Tracks     []trip.Summary `json:"tracks"`
	Error      string         `json:"error,omitempty"`
}

type Options struct {
	Notifier Notifier
	Topic    string
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

type Machine struct {
	sessions  SessionSource
	locations LocationFetcher
	notifier  Notifier
	topic     string
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func New(sessions SessionSource, locations LocationFetcher, opts Options) *Machine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		sessions:  sessions,
		locations: locations,
		notifier:  opts.Notifier,
		topic:     opts.Topic,
		loc:       opts.Location,
		now:       opts.Now,
		log:       logger.OrNop(opts.Logger),
		state:     State{Phase: PhaseIdle},
	}
}

// Fetch replaces the displayed tracks with those for req. Starting a fetch
// cancels the one in flight; the older call then returns ErrSuperseded and
// never touches the state.
func (m *Machine) Fetch(ctx context.Context, req Request) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	gen := m.state.Generation + 1
	m.state = State{
		Phase:      PhaseLoading,
		Generation: gen,
		RequestID:  uuid.NewString(),
		Target:     strings.TrimSpace(req.Target),
	}
	loading := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(loading)

	log := m.log.With(zap.String("request_id", loading.RequestID), zap.Uint64("generation", gen))
	log.Debug("fetching tracks", zap.String("target", loading.Target))

	tracks, target, elevated, err := m.load(ctx, req)

	m.mu.Lock()
	if m.state.Generation != gen {
		m.mu.Unlock()
		log.Debug("fetch superseded")
		return State{}, ErrSuperseded
	}
	m.cancel = nil
	m.state.Target = target
	m.state.Elevated = elevated
	if err != nil {
		m.state.Phase = PhaseError
		m.state.Error = Message(err)
	} else {
		m.state.Phase = PhaseDone
		m.state.Tracks = tracks
	}
	done := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(done)

	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return done, err
	}
	log.Info("tracks loaded", zap.String("target", target), zap.Int("tracks", len(tracks)))
	return done, nil
}

func (m *Machine) load(ctx context.Context, req Request) ([]trip.Track, string, bool, error) {
	sess, err := m.sessions.Resolve(ctx)
	if err != nil {
		return nil, strings.TrimSpace(req.Target), false, err
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		target = sess.Username
	}
	fromISO, toISO := m.bounds(req)

	switch {
	case sess.Owns(target):
		points, err := m.locations.GetLocationsByDateTime(ctx, sess, target, fromISO, toISO)
		if err != nil {
			return nil, target, false, err
		}
		return nonNil(trip.Segment(points)), target, false, nil
	case sess.IsAdministrator():
		points, err := m.locations.GetLocationsByDateTimeWithElevatedAccess(ctx, sess, target, fromISO, toISO)
		if err != nil {
			return nil, target, true, err
		}
		tracks := nonNil(trip.Segment(points))
		trip.SortByRecency(tracks)
		return tracks, target, true, nil
	default:
		return nil, target, false, ErrForbidden
	}
}

func (m *Machine) bounds(req Request) (string, string) {
	from, to := req.From, req.To
	if from.IsZero() {
		from = m.now()
	}
	if to.IsZero() {
		to = from
	}
	return timeutil.DateRange{From: from, To: to}.Bounds(m.loc)
}

func nonNil(tracks []trip.Track) []trip.Track {
	if tracks == nil {
		return []trip.Track{}
	}
	return tracks
}

// State returns a snapshot of the current view.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() State {
	s := m.state
	if s.Tracks != nil {
		s.Tracks = append([]trip.Track(nil), s.Tracks...)
	}
	return s
}

func (m *Machine) track(index int) (trip.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TrackAt(m.state, index)
}

// TrackAt returns track index of s.
func TrackAt(s State, index int) (trip.Track, error) {
	if index < 0 || index >= len(s.Tracks) {
		return nil, ErrNoTrack
	}
	return s.Tracks[index], nil
}

// ViewFor returns a snapshot when sess may see it: nothing is loaded, the
// tracks are its own, or sess is an administrator.
func (m *Machine) ViewFor(sess session.Session) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	if s.Target != "" && !sess.Owns(s.Target) && !sess.IsAdministrator() {
		return State{}, ErrForbidden
	}
	return m.snapshotLocked(), nil
}

// Reset cancels any fetch in flight and returns the view to idle. The
// cancelled fetch returns ErrSuperseded.
func (m *Machine) Reset() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = State{Phase: PhaseIdle, Generation: m.state.Generation + 1}
	idle := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(idle)
	m.log.Debug("view reset", zap.Uint64("generation", idle.Generation))
}

func (m *Machine) Sample(index int, zoom float64) (trip.Track, error) {
	t, err := m.track(index)
	if err != nil {
		return nil, err
	}
	return trip.Sample(t, zoom), nil
}

func (m *Machine) Summary(index int) (trip.Summary, error) {
	t, err := m.track(index)
	if err != nil {
		return trip.Summary{}, err
	}
	return trip.Summarize(index, t), nil
}

func (m *Machine) Region(index int) (geo.Region, error) {
	t, err := m.track(index)
	if err != nil {
		return geo.Region{}, err
	}
	return trip.Region(t), nil
}

func (m *Machine) GeoJSON() *geojson.FeatureCollection {
	return trip.FeatureCollection(m.State().Tracks)
}

func (m *Machine) publish(s State) {
	if m.notifier == nil {
		return
	}
	ev := Event{
		Phase:      s.Phase,
		Generation: s.Generation,
		RequestID:  s.RequestID,
		Target:     s.Target,
		Tracks:     make([]trip.Summary, len(s.Tracks)),
		Error:      s.Error,
	}
	for i, t := range s.Tracks {
		ev.Tracks[i] = trip.Summarize(i, t)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Error("encode state event", zap.Error(err))
		return
	}
	m.notifier.Broadcast(m.topic, payload)
}

// Message is the text shown to the user for a failed operation.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var serverErr *gateway.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Reason
	}
	return err.Error()
}

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// Scenario geometry. The ego drives along +x on y = 0 from EgoStartX towards
// GoalX; the NPC drives along +y on x = 0 from NPCStartY, crossing the ego's
// path at the origin. p_ego and p_npc shift each spawn forward along its lane.
const (
	EgoStartX = -40.0
	GoalX     = 40.0
	NPCStartY = -25.0
	LaneWidth = 3.5

	accelRate   = 3.0 // m/s²
	decelRate   = 5.0
	brakeRate   = 8.0
	stopHold    = 5    // ticks held at standstill
	stopMaxTick = 1000 // give up waiting for a standstill after this many ticks
	cancelCheck = 100  // ticks between context checks
)

// KmhToMs converts km/h to m/s
func KmhToMs(v float64) float64 {
	return v * 1000 / 3600
}

// Simulator is a deterministic two-vehicle kinematic world. Each Run plays one
// isolated episode; runs are serialised.
type Simulator struct {
	cfg    config.Kinematic
	logger *slog.Logger

	mu  sync.Mutex
	rng *utils.RandSource
}

// New creates a simulator. rngSeed drives spontaneous actions; zero seeds
// from the clock.
func New(cfg config.Kinematic, rngSeed int64) *Simulator {
	return &Simulator{
		cfg:    cfg,
		logger: logger.Default,
		rng:    utils.NewRandSource(rngSeed),
	}
}

// SetLogger sets the simulator's logger
func (s *Simulator) SetLogger(l *slog.Logger) {
	s.logger = l
}

type vehicle struct {
	x, y    float64
	speed   float64 // along the lane
	lateral float64 // m/s across the lane
}

// active is the action the NPC is currently holding.
type active struct {
	action models.ActionKind
	start  int
	until  int // tick the action ends, -1 while waiting for a standstill
}

type episode struct {
	cfg      config.Kinematic
	rng      *utils.RandSource
	seed     *models.Seed
	queue    *EventQueue
	ego, npc vehicle
	egoSpeed float64
	tick     int
	current  *active
	laneDir  float64
	injected int
	out      *models.Episode
}

// Run plays the seed to collision, arrival or timeout
func (s *Simulator) Run(ctx context.Context, seed *models.Seed) (*models.Episode, error) {
	if !seed.Resolved() {
		return nil, fmt.Errorf("round %d: %w", seed.RoundID, ErrUnresolvedSeed)
	}
	for _, a := range seed.ActionChain {
		if a.Tick < 0 {
			return nil, fmt.Errorf("round %d: negative action tick %d", seed.RoundID, a.Tick)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ep := s.newEpisode(seed)
	if err := ep.play(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("Episode finished",
		"round_id", seed.RoundID,
		"result", ep.out.Result,
		"ticks", ep.tick,
		"actions", len(ep.out.Actions))
	return ep.out, nil
}

func (s *Simulator) newEpisode(seed *models.Seed) *episode {
	ep := &episode{
		cfg:      s.cfg,
		rng:      s.rng,
		seed:     seed,
		queue:    NewEventQueue(),
		ego:      vehicle{x: EgoStartX + *seed.PEgo},
		npc:      vehicle{y: NPCStartY + *seed.PNpc, speed: KmhToMs(*seed.VNpc)},
		egoSpeed: KmhToMs(s.cfg.EgoSpeedKmh),
		laneDir:  1,
		out:      &models.Episode{},
	}
	ep.ego.speed = ep.egoSpeed
	for _, a := range seed.ActionChain {
		ep.queue.Schedule(&Event{Type: EventTypeScriptedAction, Tick: a.Tick, Action: a.Action})
	}
	if seed.ActionCapability > 0 {
		ep.queue.Schedule(&Event{Type: EventTypeActionCheck, Tick: s.cfg.ActionCheckInterval})
	}
	return ep
}

func (ep *episode) maxTicks() int {
	return int(math.Round(ep.cfg.MaxRuntimeSeconds / ep.cfg.TickSeconds))
}

func (ep *episode) play(ctx context.Context) error {
	ep.record()
	ep.dispatch()
	for {
		if ep.tick%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ep.step()
		ep.tick++
		ep.record()
		if ep.finished() {
			return nil
		}
		ep.dispatch()
	}
}

// step advances both vehicles by one tick.
func (ep *episode) step() {
	dt := ep.cfg.TickSeconds
	ep.ego.x += ep.ego.speed * dt

	if ep.current != nil {
		switch ep.current.action {
		case models.ActionAccelerate:
			ep.npc.speed += accelRate * dt
		case models.ActionDecelerate:
			ep.npc.speed = math.Max(0, ep.npc.speed-decelRate*dt)
		case models.ActionStop:
			ep.npc.speed = math.Max(0, ep.npc.speed-brakeRate*dt)
			if ep.current.until < 0 && (ep.npc.speed == 0 || ep.tick-ep.current.start >= stopMaxTick) {
				ep.current.until = ep.tick + stopHold
				ep.queue.Schedule(&Event{Type: EventTypeActionEnd, Tick: ep.current.until})
			}
		case models.ActionLaneChange, models.ActionNone:
		}
	}
	ep.npc.y += ep.npc.speed * dt
	ep.npc.x += ep.npc.lateral * dt
}

func (ep *episode) record() {
	t := float64(ep.tick) * ep.cfg.TickSeconds
	ep.out.Ego = append(ep.out.Ego, models.Sample{T: t, X: ep.ego.x, Y: ep.ego.y})
	ep.out.Npc = append(ep.out.Npc, models.Sample{T: t, X: ep.npc.x, Y: ep.npc.y})
}

// finished judges collision, then arrival, then timeout.
func (ep *episode) finished() bool {
	gap := utils.Distance3(ep.ego.x, ep.ego.y, 0, ep.npc.x, ep.npc.y, 0)
	switch {
	case gap < ep.cfg.CollisionRadius:
		ep.out.Result = models.ResultCollision
		ep.out.Collided = true
	case utils.Distance3(ep.ego.x, ep.ego.y, 0, GoalX, 0, 0) <= ep.cfg.ArriveScope:
		ep.out.Result = models.ResultArrive
	case ep.tick >= ep.maxTicks():
		ep.out.Result = models.ResultTimeout
	default:
		return false
	}
	ep.closeAction()
	return true
}

func (ep *episode) dispatch() {
	for {
		ev := ep.queue.NextDue(ep.tick)
		if ev == nil {
			return
		}
		switch ev.Type {
		case EventTypeActionEnd:
			if ep.current != nil && ep.current.until == ev.Tick {
				ep.closeAction()
			}
		case EventTypeScriptedAction:
			ep.start(ev.Action)
		case EventTypeActionCheck:
			ep.rollSpontaneous()
			ep.queue.Schedule(&Event{Type: EventTypeActionCheck, Tick: ep.tick + ep.cfg.ActionCheckInterval})
		}
	}
}

// rollSpontaneous injects a random action while the seed's budget allows.
func (ep *episode) rollSpontaneous() {
	if ep.injected >= ep.seed.ActionCapability || ep.current != nil {
		return
	}
	if !ep.rng.BernoulliBool(ep.cfg.ActionOdds) {
		return
	}
	options := ep.cfg.ActionOptions
	if len(options) == 0 {
		options = models.DefaultActionOptions
	}
	if ep.start(options[ep.rng.Intn(len(options))]) {
		ep.injected++
	}
}

// start begins an action. Actions arriving while another is held are dropped.
func (ep *episode) start(action models.ActionKind) bool {
	if ep.current != nil {
		return false
	}
	switch action {
	case models.ActionNone:
		ep.out.Actions = append(ep.out.Actions, models.ActionRecord{Tick: ep.tick, Action: action})
		return true
	case models.ActionStop:
		ep.current = &active{action: action, start: ep.tick, until: -1}
		return true
	case models.ActionLaneChange:
		ticks := ep.cfg.ActionDurationTicks
		ep.npc.lateral = ep.laneDir * LaneWidth / (float64(ticks) * ep.cfg.TickSeconds)
		ep.laneDir = -ep.laneDir
	case models.ActionAccelerate, models.ActionDecelerate:
	}
	ep.current = &active{action: action, start: ep.tick, until: ep.tick + ep.cfg.ActionDurationTicks}
	ep.queue.Schedule(&Event{Type: EventTypeActionEnd, Tick: ep.current.until})
	return true
}

// closeAction records the held action with the ticks it lasted.
func (ep *episode) closeAction() {
	if ep.current == nil {
		return
	}
	ep.out.Actions = append(ep.out.Actions, models.ActionRecord{
		Tick:     ep.current.start,
		Action:   ep.current.action,
		Duration: ep.tick - ep.current.start,
	})
	ep.npc.lateral = 0
	ep.current = nil
}

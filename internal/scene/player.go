package scene

import (
	"math"
	"time"
)

// Animation keys sent to the client.
const (
	AnimIdle          = "idle"
	AnimWalkRight     = "walk-right"
	AnimWalkDownRight = "walk-down-right"
	AnimWalkDown      = "walk-down"
	AnimWalkDownLeft  = "walk-down-left"
	AnimWalkLeft      = "walk-left"
	AnimWalkUpLeft    = "walk-up-left"
	AnimWalkUp        = "walk-up"
	AnimWalkUpRight   = "walk-up-right"
)

// diagonalFactor keeps diagonal speed close to straight speed.
const diagonalFactor = 0.707

// Input is the directional state for one tick.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Idle reports whether no direction is held.
func (in Input) Idle() bool { return !in.Up && !in.Down && !in.Left && !in.Right }

// PlayerConfig holds movement tuning.
type PlayerConfig struct {
	Start Vec
	Speed float64 // units per second
}

// DefaultPlayerConfig is the stock movement tuning.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{Start: Vec{X: 150, Y: 450}, Speed: 180}
}

// Player is the avatar moving through a scene.
type Player struct {
	Position  Vec    `json:"position"`
	Velocity  Vec    `json:"velocity"`
	Animation string `json:"animation"`
}

func newPlayer(cfg PlayerConfig) Player {
	return Player{Position: cfg.Start, Animation: AnimIdle}
}

// velocityFor converts held keys into a velocity. Up beats down and left
// beats right when both are held.
func velocityFor(in Input, speed float64) Vec {
	var v Vec
	if in.Up {
		v.Y = -speed
	} else if in.Down {
		v.Y = speed
	}
	if in.Left {
		v.X = -speed
	} else if in.Right {
		v.X = speed
	}
	if v.X != 0 && v.Y != 0 {
		v.X *= diagonalFactor
		v.Y *= diagonalFactor
	}
	return v
}

// AnimationFor maps a velocity to one of eight walk directions.
func AnimationFor(v Vec) string {
	if v.X == 0 && v.Y == 0 {
		return AnimIdle
	}
	angle := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	switch {
	case angle >= 337.5 || angle < 22.5:
		return AnimWalkRight
	case angle < 67.5:
		return AnimWalkDownRight
	case angle < 112.5:
		return AnimWalkDown
	case angle < 157.5:
		return AnimWalkDownLeft
	case angle < 202.5:
		return AnimWalkLeft
	case angle < 247.5:
		return AnimWalkUpLeft
	case angle < 292.5:
		return AnimWalkUp
	default:
		return AnimWalkUpRight
	}
}

func (p *Player) step(in Input, dt time.Duration, speed float64, canvas Canvas) {
	p.Velocity = velocityFor(in, speed)
	p.Animation = AnimationFor(p.Velocity)
	secs := dt.Seconds()
	p.Position = canvas.Clamp(Vec{
		X: p.Position.X + p.Velocity.X*secs,
		Y: p.Position.Y + p.Velocity.Y*secs,
	})
}

func (p *Player) freeze() {
	p.Velocity = Vec{}
	p.Animation = AnimIdle
}

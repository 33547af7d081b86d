package physics

// Tuning holds the gameplay constants shared by the authoritative simulation
// and the client prediction engine. Both sides must run with the same values
// or replayed predictions drift from the authority.
type Tuning struct {
	PlayerSpeed   float64 `mapstructure:"player_speed"`
	DashSpeed     float64 `mapstructure:"dash_speed"`
	DashTime      float64 `mapstructure:"dash_time"`
	DashCooldown  float64 `mapstructure:"dash_cooldown"`
	ShootCooldown float64 `mapstructure:"shoot_cooldown"`
	Friction      float64 `mapstructure:"friction"`

	BulletSpeed  float64 `mapstructure:"bullet_speed"`
	BulletLife   float64 `mapstructure:"bullet_life"`
	BulletRadius float64 `mapstructure:"bullet_radius"`
	BulletDamage int32   `mapstructure:"bullet_damage"`
	MuzzleOffset float64 `mapstructure:"muzzle_offset"`

	PlayerRadius float64 `mapstructure:"player_radius"`
	MaxHP        int32   `mapstructure:"max_hp"`

	ArenaWidth  float64 `mapstructure:"arena_width"`
	ArenaHeight float64 `mapstructure:"arena_height"`
	ArenaMargin float64 `mapstructure:"arena_margin"`

	SpawnMinX   float64 `mapstructure:"spawn_min_x"`
	SpawnMinY   float64 `mapstructure:"spawn_min_y"`
	SpawnRangeX float64 `mapstructure:"spawn_range_x"`
	SpawnRangeY float64 `mapstructure:"spawn_range_y"`
}

// Movement deadzones. Below MoveDeadzone an input is treated as idle; a dash
// only follows the input direction above DashDeadzone, otherwise it follows
// the current facing.
const (
	MoveDeadzone = 0.01
	DashDeadzone = 0.1
)

// DefaultTuning returns the stock arena: 1600x900, 220 px/s walk, 900 px/s dash.
func DefaultTuning() Tuning {
	return Tuning{
		PlayerSpeed:   220,
		DashSpeed:     900,
		DashTime:      0.14,
		DashCooldown:  3.0,
		ShootCooldown: 0.25,
		Friction:      0.8,

		BulletSpeed:  400,
		BulletLife:   2.0,
		BulletRadius: 6,
		BulletDamage: 20,
		MuzzleOffset: 10,

		PlayerRadius: 20,
		MaxHP:        100,

		ArenaWidth:  1600,
		ArenaHeight: 900,
		ArenaMargin: 100,

		SpawnMinX:   200,
		SpawnMinY:   150,
		SpawnRangeX: 800,
		SpawnRangeY: 500,
	}
}

// WithDefaults fills every zero field from DefaultTuning, so a partially
// configured game section still yields a playable arena.
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.PlayerSpeed, d.PlayerSpeed)
	fill(&t.DashSpeed, d.DashSpeed)
	fill(&t.DashTime, d.DashTime)
	fill(&t.DashCooldown, d.DashCooldown)
	fill(&t.ShootCooldown, d.ShootCooldown)
	fill(&t.Friction, d.Friction)
	fill(&t.BulletSpeed, d.BulletSpeed)
	fill(&t.BulletLife, d.BulletLife)
	fill(&t.BulletRadius, d.BulletRadius)
	fill(&t.MuzzleOffset, d.MuzzleOffset)
	fill(&t.PlayerRadius, d.PlayerRadius)
	fill(&t.ArenaWidth, d.ArenaWidth)
	fill(&t.ArenaHeight, d.ArenaHeight)
	fill(&t.ArenaMargin, d.ArenaMargin)
	fill(&t.SpawnMinX, d.SpawnMinX)
	fill(&t.SpawnMinY, d.SpawnMinY)
	fill(&t.SpawnRangeX, d.SpawnRangeX)
	fill(&t.SpawnRangeY, d.SpawnRangeY)
	if t.BulletDamage == 0 {
		t.BulletDamage = d.BulletDamage
	}
	if t.MaxHP == 0 {
		t.MaxHP = d.MaxHP
	}
	return t
}

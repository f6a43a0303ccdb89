package dashboard

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/audio"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/migration"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
	"github.com/lixenwraith/spotglobe/render"
	"github.com/lixenwraith/spotglobe/savings"
)

// Payloads for EventSelectRegion that need view state to resolve into a region name
type (
	regionIndex int // 1-based shortcut into the marker order
	click       struct{ X, Y int }
	size        struct{ W, H int }
)

// handleViewEvent resolves view-relative intents on the loop goroutine
// String selections are already handled by the orchestrator
func (d *Dashboard) handleViewEvent(ev event.Event) {
	switch ev.Type {
	case event.EventSelectRegion:
		switch p := ev.Payload.(type) {
		case regionIndex:
			order := d.regionOrder()
			i := int(p) - 1
			if i < 0 || i >= len(order) || i >= parameter.MaxRegionShortcuts {
				return
			}
			d.orch.SelectTarget(order[i])
		case click:
			if region, ok := d.renderer.HitTest(p.X, p.Y); ok {
				d.orch.SelectTarget(region)
			}
		}
	case event.EventResize:
		w, h := d.screen.Size()
		if p, ok := ev.Payload.(size); ok {
			w, h = p.W, p.H
		}
		d.renderer.Resize(w, h)
	case event.EventQuit:
		d.log.Info("quit_requested")
		d.loop.Stop()
	}
}

func (d *Dashboard) onMigrationState(st migration.State) {
	if st.Phase == d.lastPhase {
		// Target changes within TARGET_SELECTED still steer the globe
		if st.Phase == migration.PhaseTargetSelected {
			d.rot.SetTarget(st.Target)
		}
		return
	}
	prev := d.lastPhase
	d.lastPhase = st.Phase
	d.log.Debug("phase_changed", zap.Stringer("from", prev), zap.Stringer("to", st.Phase), zap.String("target", st.Target))

	switch st.Phase {
	case migration.PhaseIdle:
		d.rot.ClearTarget()
	case migration.PhaseTargetSelected, migration.PhaseValidating:
		d.rot.SetTarget(st.Target)
	case migration.PhaseSuccessResetting:
		d.chimes.Play(audio.ChimeSuccess)
	case migration.PhaseBlocked:
		d.chimes.Play(audio.ChimeBlocked)
	}
}

// onFeedState chimes once per newly raised drop alert
func (d *Dashboard) onFeedState(price.FeedState) {
	n := d.drops.Load()
	if n > d.lastDrops {
		d.chimes.Play(audio.ChimeDrop)
	}
	d.lastDrops = n
}

func (d *Dashboard) frame(dt time.Duration) {
	angle := d.rot.Update(dt)
	period := parameter.MarkerPulsePeriod.Seconds()
	d.pulse = math.Mod(d.pulse+dt.Seconds()/period, 1)
	scene := d.buildScene(angle)
	d.renderer.RenderFrame(&scene)
}

// regionOrder is feed order followed by unpriced table regions
// Digit shortcuts index into it
func (d *Dashboard) regionOrder() []string {
	snap := d.feed.Snapshot()
	order := snap.Regions()
	seen := make(map[string]bool, len(order))
	for _, r := range order {
		seen[r] = true
	}
	for _, r := range d.table.Regions() {
		if !seen[r.Name] {
			order = append(order, r.Name)
		}
	}
	return order
}

func (d *Dashboard) buildScene(angle float64) render.Scene {
	feed := d.feed.State()
	st := d.orch.State()

	scene := render.Scene{Angle: angle, Pulse: d.pulse}

	showSource := st.Source != "" &&
		(st.Phase == migration.PhaseValidating || st.Phase == migration.PhaseSuccessResetting)

	for i, region := range d.regionOrder() {
		m := render.Marker{
			Region:   region,
			Position: d.table.Position(region),
		}
		m.Price, m.HasPrice = feed.Snapshot.Price(region)
		m.Cheap = m.HasPrice && d.feed.IsCheap(region)
		if i < parameter.MaxRegionShortcuts {
			m.Index = i + 1
		}
		switch {
		case st.Target != "" && region == st.Target:
			m.Role = render.RoleTarget
		case showSource && region == st.Source:
			m.Role = render.RoleSource
		}
		scene.Markers = append(scene.Markers, m)
	}

	now := d.loop.Timers().Now()
	events := d.board.Events()
	for _, ev := range events {
		ttl := ev.ExpiresAt.Sub(ev.ReceivedAt)
		life := 0.0
		if ttl > 0 {
			life = float64(ev.ExpiresAt.Sub(now)) / float64(ttl)
		}
		scene.Arcs = append(scene.Arcs, render.Arc{
			From:  d.table.Position(ev.Source),
			To:    d.table.Position(ev.Target),
			Label: ev.Target,
			Life:  math.Max(0, math.Min(1, life)),
		})
	}

	hud := render.HUD{
		Savings:       savings.FormatUSD(d.savings.Decimal()),
		Phase:         st.Phase.String(),
		Target:        st.Target,
		Eligible:      st.Eligible,
		BlockedReason: st.BlockedReason,
		Stale:         feed.Stale,
		Connected:     d.connected.Load(),
		Muted:         !d.chimes.Enabled(),
	}
	if st.HasPrice {
		hud.TargetPrice = fmt.Sprintf("$%.4f", st.TargetPrice)
	}
	if showSource {
		hud.Source = st.Source
	}
	if feed.Drop != nil {
		hud.Alert = dropAlert(*feed.Drop)
	}
	for i := len(events) - 1; i >= 0 && len(hud.Live) < parameter.MaxLiveLines; i-- {
		hud.Live = append(hud.Live, fmt.Sprintf("%s → %s", events[i].Source, events[i].Target))
	}
	scene.HUD = hud
	return scene
}

func dropAlert(drop price.DropEvent) string {
	pct := (1 - drop.Ratio()) * 100
	return fmt.Sprintf("%s dropped %.0f%%: $%.4f → $%.4f", drop.Region, pct, drop.PreviousPrice, drop.CurrentPrice)
}

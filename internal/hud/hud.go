// Package hud keeps the frame statistics shown over the viewer.
package hud

import (
	"fmt"
	gomath "math"
)

// fpsWindow is the minimum span, in seconds, an FPS sample averages over.
const fpsWindow = 0.5

// HUD tracks FPS, the drawn/total point counts and the LOD toggle.
type HUD struct {
	fps        float64
	frameAccum int
	windowTime float64 // seconds accumulated in the current FPS window

	drawn      int
	total      int
	lodEnabled bool
}

// New returns a HUD with LOD shown as enabled.
func New() *HUD {
	return &HUD{lodEnabled: true}
}

// Update records one frame. deltaMs is the frame time in milliseconds.
// FPS is recomputed once at least half a second has accumulated.
func (h *HUD) Update(deltaMs float64) {
	if deltaMs < 0 || gomath.IsNaN(deltaMs) {
		return
	}
	h.frameAccum++
	h.windowTime += deltaMs / 1000.0

	if h.windowTime >= fpsWindow {
		h.fps = float64(h.frameAccum) / h.windowTime
		h.frameAccum = 0
		h.windowTime = 0
	}
}

// FPS returns the last completed FPS sample.
func (h *HUD) FPS() float64 {
	return h.fps
}

// SetTotals records how many points are drawn out of the total.
func (h *HUD) SetTotals(drawn, total int) {
	h.drawn = drawn
	h.total = total
}

// Totals returns the drawn and total point counts.
func (h *HUD) Totals() (drawn, total int) {
	return h.drawn, h.total
}

// SetLODEnabled records the LOD toggle.
func (h *HUD) SetLODEnabled(enabled bool) {
	h.lodEnabled = enabled
}

// LODEnabled returns the LOD toggle.
func (h *HUD) LODEnabled() bool {
	return h.lodEnabled
}

// String renders the one-line summary.
func (h *HUD) String() string {
	lod := "on"
	if !h.lodEnabled {
		lod = "off"
	}
	return fmt.Sprintf("FPS: %d | Drawn: %d / %d | LOD: %s (L to toggle)",
		int(gomath.Round(h.fps)), h.drawn, h.total, lod)
}

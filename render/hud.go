package render

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

const helpText = "1-9 select  enter migrate  esc cancel  q quit"

// HUDLayer draws the title bar, drop alert, live feed and migration status bar
type HUDLayer struct{}

func (HUDLayer) Render(ctx Context, buf *RenderBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	hud := ctx.Scene.HUD

	// Title row
	x := buf.Text(1, 0, "spotglobe", RgbText, tcell.AttrBold)
	if hud.Savings != "" {
		x = buf.Text(x+2, 0, "saved ", RgbDim, tcell.AttrNone)
		buf.Text(x, 0, hud.Savings+"/yr", RgbSuccess, tcell.AttrBold)
	}
	status, fg := "○ offline", RgbDim
	if hud.Connected {
		status, fg = "● live", RgbSuccess
	}
	if hud.Muted {
		status += "  muted"
	}
	buf.Text(ctx.Width-utf8.RuneCountInString(status)-1, 0, status, fg, tcell.AttrNone)

	row := 1
	if hud.Alert != "" {
		buf.TextWithBg(1, row, " ▼ "+hud.Alert+" ", RgbAlert, RgbAlertBg)
		row++
	}
	if hud.Stale {
		buf.Text(1, row, "prices stale", RgbDim, tcell.AttrItalic)
	}

	// Live events stack down the right edge, newest first
	for i, line := range hud.Live {
		y := 1 + i
		if y >= ctx.Height-1 {
			break
		}
		buf.Text(ctx.Width-utf8.RuneCountInString(line)-1, y, line, RgbLive, tcell.AttrNone)
	}

	drawStatusBar(ctx, buf, hud)
}

func drawStatusBar(ctx Context, buf *RenderBuffer, hud HUD) {
	y := ctx.Height - 1
	buf.FillRow(y, RgbBarBg)

	phase := hud.Phase
	if phase == "" {
		phase = "IDLE"
	}
	phaseFg := RgbText
	switch phase {
	case "BLOCKED":
		phaseFg = RgbAlert
	case "SUCCESS":
		phaseFg = RgbSuccess
	case "VALIDATING":
		phaseFg = RgbTarget
	}
	x := buf.Text(1, y, " "+phase+" ", phaseFg, tcell.AttrBold|tcell.AttrReverse)

	if hud.Target != "" {
		x = buf.Text(x+1, y, "→ "+hud.Target, RgbTarget, tcell.AttrNone)
		if hud.TargetPrice != "" {
			x = buf.Text(x+1, y, hud.TargetPrice, RgbText, tcell.AttrNone)
		}
		if hud.Eligible {
			x = buf.Text(x+1, y, "cheap", RgbCheap, tcell.AttrNone)
		}
		if hud.Source != "" {
			x = buf.Text(x+1, y, "from "+hud.Source, RgbSource, tcell.AttrNone)
		}
	}
	if hud.BlockedReason != "" {
		x = buf.Text(x+2, y, hud.BlockedReason, RgbAlert, tcell.AttrNone)
	}

	if hx := ctx.Width - len(helpText) - 1; hx > x+1 {
		buf.Text(hx, y, helpText, RgbDim, tcell.AttrNone)
	}
}

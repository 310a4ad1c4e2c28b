package gui

import (
	"context"
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColCell    = rl.NewColor(220, 220, 220, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

type App struct {
	Sim        *life.Simulation
	Surface    *Surface
	Metrics    []metrics.Metric
	Running    bool
	ShowHUD    bool
	Telemetry  []float64 // update ms ring buffer
	MaxHistory int

	quit bool
}

// InitWindow opens a resizable window. Devices that need a GL context must
// be opened after this.
func InitWindow(width, height, fps int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(width), int32(height), "Initializing...")
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)
}

func CloseWindow() {
	rl.CloseWindow()
}

func NewApp(sim *life.Simulation) *App {
	return &App{
		Sim:        sim,
		Surface:    NewSurface(sim.Side(), rl.GetScreenWidth(), rl.GetScreenHeight()),
		Metrics:    metrics.Default(),
		Running:    true,
		ShowHUD:    true,
		MaxHistory: 200,
		Telemetry:  make([]float64, 0, 200),
	}
}

// RunLoop steps and draws until the window closes or Q is pressed.
func (a *App) RunLoop() error {
	defer a.Surface.Unload()
	for !rl.WindowShouldClose() && !a.quit {
		if err := a.Update(); err != nil {
			return err
		}
		a.Draw()
	}
	return nil
}

func (a *App) Update() error {
	if rl.IsKeyPressed(rl.KeyQ) {
		a.quit = true
		return nil
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		if err := a.Sim.Toggle(context.Background()); err != nil {
			return err
		}
	}
	if rl.IsKeyPressed(rl.KeyP) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.ShowHUD = !a.ShowHUD
	}
	if rl.IsWindowResized() {
		a.Surface.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}

	if a.Running {
		if err := a.Sim.Tick(a.Surface); err != nil {
			return err
		}
		metrics.Observe(a.Metrics, metrics.Sample{
			Generation: a.Sim.Generation(),
			Step:       a.Sim.LastStep(),
			Cells:      a.Sim.Cells(),
			Population: -1,
		})
		a.Telemetry = append(a.Telemetry, float64(a.Sim.LastStep())/float64(time.Millisecond))
		if len(a.Telemetry) > a.MaxHistory {
			a.Telemetry = a.Telemetry[1:]
		}
	}

	rl.SetWindowTitle(life.Title(a.Sim))
	return nil
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.Surface.Upload()
	a.Surface.Draw()
	if a.ShowHUD {
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	h := rl.GetScreenHeight()

	a.drawText("lifesim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Sim.Device().Name()), 140, 34, 16, ColText)

	status := "RUNNING"
	col := ColSelect
	if !a.Running {
		status = "PAUSED"
		col = ColTextDim
	}
	a.drawText(status, 30, 64, 16, col)
	a.drawText(fmt.Sprintf("MODE %s", a.Sim.Mode()), 30, 88, 16, ColAccent)
	a.drawText(fmt.Sprintf("GEN  %d", a.Sim.Generation()), 30, 108, 16, ColText)

	vals := metrics.Values(a.Metrics)
	a.drawText(fmt.Sprintf("AVG  %.2fms", vals["step_ms"]), 30, 128, 16, ColText)
	a.drawText(fmt.Sprintf("MAX  %.2fms", vals["max_step_ms"]), 30, 148, 16, ColText)

	a.DrawTelemetry(30, h-120)

	a.drawText("[SPACE] GPU/CPU  [P] PAUSE  [H] HUD  [Q] QUIT", 30, h-40, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, h-60, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawText(text, int32(x), int32(y), int32(size), color)
}

// DrawTelemetry plots recent update times as a line strip.
func (a *App) DrawTelemetry(rectX, rectY int) {
	if len(a.Telemetry) < 2 {
		return
	}
	width, height := 300, 50

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("%.2fms", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

package main

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shading-engine/config"
	"shading-engine/core"
	"shading-engine/internal/logger"
	"shading-engine/internal/opengl"
	"shading-engine/renderer"
	"shading-engine/scene"
	"shading-engine/textures"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open a window and render the scene with OpenGL",
		Long: `Open a window and render the configured model.

Keys: arrows orbit, W/S zoom, N toggles the normal-map view,
M toggles the specular-map view, Escape quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cfg)
		},
	}
}

func run(cfg config.Config) error {
	wc := core.DefaultWindowConfig()
	wc.Title = cfg.Window.Title
	wc.Width = cfg.Window.Width
	wc.Height = cfg.Window.Height

	window, err := core.NewWindow(wc)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}
	defer dev.Destroy()

	cache := textures.NewManager(dev)
	defer cache.Destroy()

	s, err := buildScene(cfg, cache)
	if err != nil {
		return err
	}

	re, err := renderer.NewRenderEngine(dev, cache)
	if err != nil {
		return fmt.Errorf("failed to create render engine: %w", err)
	}
	defer re.Destroy()
	re.SetScene(s)

	fbw, fbh := window.GetFramebufferSize()
	re.Resize(fbw, fbh)
	window.OnResize(re.Resize)

	orbit := orbitAround(s.Camera)

	var showNormals, showSpecular bool
	window.SetKeyPressCallback(func(key int) {
		switch key {
		case core.KeyN:
			showNormals = !showNormals
			re.SetDisplayNormalMap(showNormals)
			logger.Log.Info("normal map view", zap.Bool("on", showNormals))
		case core.KeyM:
			showSpecular = !showSpecular
			re.SetDisplaySpecularMap(showSpecular)
			logger.Log.Info("specular map view", zap.Bool("on", showSpecular))
		case core.KeyEscape:
			window.Close()
		}
	})

	last := window.GetTime()
	lastTitle := last
	for !window.ShouldClose() {
		now := window.GetTime()
		dt := float32(now - last)
		last = now

		handleOrbitKeys(window, orbit, dt)

		if err := re.Render(); err != nil {
			return err
		}
		window.SwapBuffers()
		window.PollEvents()

		if now-lastTitle >= 1 {
			st := re.DrawStats()
			window.SetTitle(fmt.Sprintf("%s | %.0f fps | %d objects | %d tris", cfg.Window.Title, 1/float64(dt), st.Objects, st.Triangles))
			lastTitle = now
		}
	}
	return nil
}

// orbitAround wraps cam in an orbit controller that keeps its current pose.
func orbitAround(cam *scene.PerspectiveCamera) *scene.OrbitCamera {
	offset := cam.Position.Sub(cam.Target)
	dist := offset.Len()
	o := &scene.OrbitCamera{PerspectiveCamera: cam, Distance: dist}
	if dist > 0 {
		o.Yaw = math32.Atan2(offset.X(), offset.Z())
		o.Pitch = math32.Asin(offset.Y() / dist)
	}
	o.UpdatePosition()
	return o
}

func handleOrbitKeys(window *core.Window, o *scene.OrbitCamera, dt float32) {
	const turn = 1.5 // radians per second
	var yaw, pitch float32
	if window.IsKeyPressed(core.KeyLeft) {
		yaw -= turn * dt
	}
	if window.IsKeyPressed(core.KeyRight) {
		yaw += turn * dt
	}
	if window.IsKeyPressed(core.KeyUp) {
		pitch += turn * dt
	}
	if window.IsKeyPressed(core.KeyDown) {
		pitch -= turn * dt
	}
	if yaw != 0 || pitch != 0 {
		o.Orbit(yaw, pitch)
	}

	zoom := o.Distance * dt
	if window.IsKeyPressed(core.KeyW) {
		o.Zoom(-zoom)
	}
	if window.IsKeyPressed(core.KeyS) {
		o.Zoom(zoom)
	}
}

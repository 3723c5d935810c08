// Command scmdemo renders a single deformable-terrain patch driven by a
// keyboard-controlled probe body, exercising the scm package's full
// per-step pipeline end to end.
package main

import (
	"flag"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	flag.Parse()

	game := newGame()

	ebiten.SetWindowSize(w*windowScale, h*windowScale)
	ebiten.SetWindowTitle("scmdemo")

	if err := ebiten.RunGame(game); err != nil {
		slog.Error("scmdemo exited with error", "err", err)
	}
}

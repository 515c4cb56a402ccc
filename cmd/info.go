package cmd

import (
	"errors"

	"github.com/tonihW/raytracer-v2/scene/reader"
	"github.com/urfave/cli"
)

// Load a scene and print a summary of its contents.
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	sceneFile := ctx.String("scene")
	if sceneFile == "" {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(sceneFile, uint32(ctx.Int("width")), uint32(ctx.Int("height")))
	if err != nil {
		return err
	}

	logger.Noticef("scene statistics\n%s", sc.Stats())

	return nil
}

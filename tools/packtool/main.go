// packtool builds content packs from loose sprites and pulls cells back
// out of generated sheets.
//
// Usage:
//
//	go run ./tools/packtool import --kind object --pack Orchard ./raw ./packs/orchard
//	go run ./tools/packtool extract --atlas objects --index 3000 --dest pear.png
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/1siamBot/tilepatch/engine/atlas"
	"github.com/1siamBot/tilepatch/engine/config"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/packer"
	"github.com/1siamBot/tilepatch/engine/pixel"
)

func main() {
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "packtool %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: packtool import|extract [flags]")
}

func runImport(args []string) error {
	fs := pflag.NewFlagSet("import", pflag.ExitOnError)
	kind := fs.String("kind", string(content.KindObject), "entity kind of every sprite")
	filter := fs.String("filter", string(packer.Nearest), "resampling for off-size sprites (nearest, catmullrom)")
	pack := fs.String("pack", "", "pack name for a new manifest")
	author := fs.String("author", "", "pack author")
	version := fs.String("version", "", "pack version")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("want <sprite dir> <pack dir>, got %d args", fs.NArg())
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	m, err := packer.Import(fs.Arg(0), fs.Arg(1), packer.ImportOptions{
		Kind:    content.Kind(*kind),
		Filter:  packer.Filter(*filter),
		Pack:    *pack,
		Author:  *author,
		Version: *version,
	}, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"pack": m.Name, "entities": len(m.Entities)}).Info("wrote " + content.ManifestName)
	return nil
}

func runExtract(args []string) error {
	fs := pflag.NewFlagSet("extract", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to tilepatch.yaml")
	key := fs.String("atlas", atlas.Objects, "atlas key")
	index := fs.Int("index", -1, "logical sprite index")
	dest := fs.StringP("dest", "d", "", "PNG to write")
	config.RegisterFlags(fs)
	fs.Parse(args)
	if *index < 0 || *dest == "" {
		return fmt.Errorf("--index and --dest are required")
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		return err
	}
	t, ok := atlas.Lookup(atlas.Catalogue(), *key)
	if !ok {
		return fmt.Errorf("unknown atlas %q", *key)
	}
	img, sheet, err := packer.Extract(cfg.OutDir, t, cfg.MaxTilesheetHeight, *index)
	if err != nil {
		return err
	}
	if err := pixel.Save(*dest, img); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"sheet": sheet, "index": *index, "dest": *dest}).Info("extracted")
	return nil
}

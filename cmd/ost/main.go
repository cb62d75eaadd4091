// ost CLI - inspect, convert, and archive object stream files
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/objstream"
	"github.com/chazu/objstream/schema"
	"github.com/chazu/objstream/stash"
)

var log = commonlog.GetLogger("ost")

func main() {
	dump := flag.String("dump", "", "Print a stream file in the text encoding")
	convert := flag.String("convert", "", "Re-encode a stream file (see -format and -o)")
	formatName := flag.String("format", "", "Target encoding for -convert: text or binary")
	output := flag.String("o", "", "Output path; stdout when omitted")
	stashPath := flag.String("stash", "", "Stash database path (overrides config)")
	save := flag.String("save", "", "Store a stream file in the stash under this name (see -file)")
	file := flag.String("file", "", "Stream file for -save")
	list := flag.Bool("list", false, "List stash snapshots")
	show := flag.String("show", "", "Write a stash snapshot payload to -o or stdout")
	rm := flag.String("rm", "", "Delete a stash snapshot")
	export := flag.String("export", "", "Export a stash snapshot as an envelope to -o or stdout")
	importPath := flag.String("import", "", "Import an envelope file into the stash")
	configDir := flag.String("config", "", "Directory holding ost.toml (default: working directory)")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ost [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects, converts, and archives object stream files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ost -dump graph.osb                    # Print a stream as text\n")
		fmt.Fprintf(os.Stderr, "  ost -convert graph.ost -format binary -o graph.osb\n")
		fmt.Fprintf(os.Stderr, "  ost -save world -file graph.osb        # Archive a stream\n")
		fmt.Fprintf(os.Stderr, "  ost -list                              # Show archived snapshots\n")
		fmt.Fprintf(os.Stderr, "  ost -show world -o graph.osb           # Retrieve a snapshot\n")
		fmt.Fprintf(os.Stderr, "  ost -export world -o world.env         # Portable envelope out\n")
		fmt.Fprintf(os.Stderr, "  ost -import world.env                  # Envelope into the stash\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *formatName == "" {
		*formatName = cfg.DefaultFormat
	}

	switch {
	case *dump != "":
		err = runDump(*dump, *output)
	case *convert != "":
		err = runConvert(*convert, *formatName, *output)
	case *save != "":
		err = withStash(*stashPath, cfg, func(s *stash.Stash) error {
			return runSave(s, *save, *file)
		})
	case *list:
		err = withStash(*stashPath, cfg, runList)
	case *show != "":
		err = withStash(*stashPath, cfg, func(s *stash.Stash) error {
			return runShow(s, *show, *output)
		})
	case *rm != "":
		err = withStash(*stashPath, cfg, func(s *stash.Stash) error {
			return runDelete(s, *rm)
		})
	case *export != "":
		err = withStash(*stashPath, cfg, func(s *stash.Stash) error {
			return runExport(s, *export, *output)
		})
	case *importPath != "":
		err = withStash(*stashPath, cfg, func(s *stash.Stash) error {
			return runImport(s, *importPath)
		})
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withStash opens the configured stash around one action.
func withStash(path string, cfg *Config, action func(*stash.Stash) error) error {
	var err error
	if path == "" {
		path = cfg.StashPath
	}
	if path == "" {
		if path, err = defaultStashPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating stash directory: %w", err)
	}
	log.Infof("stash at %s", path)

	s, err := stash.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return action(s)
}

// readGraph loads a stream file into memory regardless of its encoding.
func readGraph(path string) (*schema.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := objstream.NewDynamicReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	root, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runDump(path, output string) error {
	root, err := readGraph(path)
	if err != nil {
		return err
	}
	data, err := objstream.Marshal(root, objstream.FormatText)
	if err != nil {
		return err
	}
	// Dumps end with a newline even though streams do not.
	return writeOutput(output, append(data, '\n'))
}

func runConvert(path, formatName, output string) error {
	format, err := objstream.ParseFormat(formatName)
	if err != nil {
		return err
	}
	root, err := readGraph(path)
	if err != nil {
		return err
	}
	data, err := objstream.Marshal(root, format)
	if err != nil {
		return err
	}
	log.Infof("converted %s to %s (%d bytes)", path, format, len(data))
	return writeOutput(output, data)
}

func runSave(s *stash.Stash, name, path string) error {
	if path == "" {
		return fmt.Errorf("-save needs -file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	format, err := objstream.DetectFormat(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Put(name, format, data); err != nil {
		return err
	}
	log.Infof("saved %s (%s, %d bytes)", name, format, len(data))
	return nil
}

func runList(s *stash.Stash) error {
	infos, err := s.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-24s %-6s %10d  %s\n",
			info.Name, info.Format, info.Size, info.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runShow(s *stash.Stash, name, output string) error {
	payload, _, err := s.Get(name)
	if err != nil {
		return err
	}
	return writeOutput(output, payload)
}

func runDelete(s *stash.Stash, name string) error {
	if err := s.Delete(name); err != nil {
		return err
	}
	log.Infof("deleted %s", name)
	return nil
}

func runExport(s *stash.Stash, name, output string) error {
	blob, err := s.Export(name)
	if err != nil {
		return err
	}
	return writeOutput(output, blob)
}

func runImport(s *stash.Stash, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name, err := s.Import(blob)
	if err != nil {
		return err
	}
	fmt.Printf("imported %s\n", name)
	return nil
}

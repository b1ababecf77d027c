package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vire-lang/vire"
	"github.com/vire-lang/vire/bytecode"
)

// config holds the ambient knobs the -config YAML document may set. None of
// these affect language semantics. TraceOpcodes makes the VM print each
// opcode it executes; StdinBufferHint is parsed but not passed to the VM, so
// it has no effect on stdin reads.
type config struct {
	TraceOpcodes    bool `yaml:"trace_opcodes"`
	StdinBufferHint int  `yaml:"stdin_buffer_hint"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vire [-config file] program.virec")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	vm := vire.New()
	vm.Parser = bytecode.FileParser{}
	vm.TraceOpcodes = cfg.TraceOpcodes

	root, err := vm.Parser.Parse(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	os.Exit(vm.Start(root))
}

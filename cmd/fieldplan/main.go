package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/codegen"
	"github.com/hanpama/fieldplan/internal/eventbus"
	"github.com/hanpama/fieldplan/internal/language"
	"github.com/hanpama/fieldplan/internal/naming"
	"github.com/hanpama/fieldplan/internal/otel"
	"github.com/hanpama/fieldplan/internal/planner"
	"github.com/hanpama/fieldplan/internal/reqid"
	"github.com/hanpama/fieldplan/internal/selection"
)

const rootUsage = `fieldplan — resource field-selection compiler & schema tools

USAGE:
  fieldplan <command> [flags]

COMMANDS:
  generate         Emit static client type text for a resource catalog
  plan             Compile a field selection into a projection plan
  validate         Load and validate a resource catalog
  help             Show help for any command
`

const generateUsage = `generate FLAGS:
  -catalog.root <dir>   Catalog definition root (default: .)
  -root <name>          Root resource to expose. Repeatable; at least one required
  -allow <name>         Add a resource to the exposure allow-list. Repeatable;
                        when omitted every public resource is allowed
  -policy <name>        External naming policy: camel, snake, pascal (default: camel)
  -out <file>           Write generated type text to file (default: stdout)
`

const planUsage = `plan FLAGS:
  -catalog.root <dir>     Catalog definition root (default: .)
  -resource <name>        Target resource (required)
  -action <name>          Action on the resource (required)
  -selection <text>       Field selection; reads stdin when omitted
  -format <json|graphql>  Selection syntax (default: json)
  -pretty                 Pretty-print the plan JSON
  -otel.endpoint <addr>   OTLP collector endpoint
  -otel.service <name>    OpenTelemetry service name (default: fieldplan)
`

const validateUsage = `validate FLAGS:
  -catalog.root <dir>   Catalog definition root (default: .)
  (Exits non-zero and prints violations when invalid)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("fieldplan", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "generate":
		return cmdGenerate(cmdArgs)
	case "plan":
		return cmdPlan(cmdArgs)
	case "validate":
		return cmdValidate(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "generate":
		fmt.Print(generateUsage)
	case "plan":
		fmt.Print(planUsage)
	case "validate":
		fmt.Print(validateUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdGenerate(args []string) error {
	rootDir := "."
	policy := "camel"
	outFile := ""
	var roots stringListFlag
	var allow stringListFlag

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "catalog.root", rootDir, "Catalog definition root")
	fs.Var(&roots, "root", "Root resource to expose")
	fs.Var(&allow, "allow", "Add a resource to the exposure allow-list")
	fs.StringVar(&policy, "policy", policy, "External naming policy")
	fs.StringVar(&outFile, "out", outFile, "Write generated type text to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, generateUsage)
		return err
	}
	if len(roots) == 0 {
		fmt.Fprint(os.Stderr, generateUsage)
		return fmt.Errorf("at least one -root is required")
	}
	switch naming.Policy(policy) {
	case naming.PolicyCamel, naming.PolicySnake, naming.PolicyPascal:
	default:
		return fmt.Errorf("unknown naming policy %q", policy)
	}

	cat, err := catalog.LoadDir(rootDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	gen := codegen.New(cat, naming.Policy(policy))
	text, err := gen.Generate(context.Background(), roots, allow)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if outFile == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(outFile, []byte(text), 0644)
}

func cmdPlan(args []string) error {
	rootDir := "."
	resource := ""
	action := ""
	selText := ""
	format := "json"
	pretty := false
	otelEndpoint := ""
	otelService := "fieldplan"

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "catalog.root", rootDir, "Catalog definition root")
	fs.StringVar(&resource, "resource", resource, "Target resource")
	fs.StringVar(&action, "action", action, "Action on the resource")
	fs.StringVar(&selText, "selection", selText, "Field selection text")
	fs.StringVar(&format, "format", format, "Selection syntax")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print the plan JSON")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	if resource == "" || action == "" {
		fmt.Fprint(os.Stderr, planUsage)
		return fmt.Errorf("-resource and -action are required")
	}
	if selText == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read selection from stdin: %w", err)
		}
		selText = string(data)
	}

	var tree selection.Tree
	var err error
	switch format {
	case "json":
		tree, err = selection.ParseJSON([]byte(selText))
	case "graphql":
		tree, err = language.ParseSelection(selText)
	default:
		return fmt.Errorf("unknown selection format %q", format)
	}
	if err != nil {
		return fmt.Errorf("parse selection: %w", err)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	cat, err := catalog.LoadDir(rootDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	ctx, _ := reqid.NewContext(context.Background())
	plan, err := planner.New(cat).Process(ctx, resource, action, tree)
	if err != nil {
		// Planner errors are structured; emit them as JSON so callers
		// can parse either outcome.
		if perr, ok := err.(*planner.Error); ok {
			out, _ := json.Marshal(perr)
			fmt.Println(string(out))
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(plan)
}

func cmdValidate(args []string) error {
	rootDir := "."
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&rootDir, "catalog.root", rootDir, "Catalog definition root")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, validateUsage)
		return err
	}

	if _, err := catalog.LoadDir(rootDir); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

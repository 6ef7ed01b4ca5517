package spice

import (
	"bufio"
	"fmt"
	"strings"

	"go.uber.org/zap"

	verrors "vlab/internal/errors"
	"vlab/internal/logging"
)

// Probes lists what a netlist can report on: its non-ground nodes and its
// voltage sources (whose branch currents ngspice exposes as <name>#branch).
type Probes struct {
	Nodes   []string
	Sources []string
}

// isGround reports whether a node name is the reference node.
func isGround(node string) bool {
	return node == "0" || strings.EqualFold(node, "gnd") || strings.EqualFold(node, "ground")
}

// ExtractProbes scans component lines for node names and voltage sources,
// in netlist order, skipping comments and directives.
func ExtractProbes(netlist string) Probes {
	var p Probes
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(netlist))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, ".") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		for _, node := range fields[1:3] {
			if !isGround(node) && !seen[node] {
				seen[node] = true
				p.Nodes = append(p.Nodes, node)
			}
		}
		if strings.HasPrefix(strings.ToUpper(fields[0]), "V") {
			p.Sources = append(p.Sources, fields[0])
		}
	}
	return p
}

// ValidateNetlist parses every component line and checks basic circuit
// sanity: at least two distinct nodes, parseable component values. A missing
// ground connection is only warned about; some valid test circuits name
// their reference node unconventionally.
func ValidateNetlist(netlist string) error {
	nodes := make(map[string]bool)
	hasGround := false

	scanner := bufio.NewScanner(strings.NewReader(netlist))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, ".") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		kind := strings.ToUpper(fields[0][:1])
		switch kind {
		case "R", "C", "L", "V", "I":
			if len(fields) < 4 {
				return verrors.ErrInvalidNetlist.GenWithStackByArgs(
					fmt.Sprintf("component %s missing value", fields[0]))
			}
			if _, err := ParseValue(fields[3]); err != nil {
				return verrors.ErrInvalidNetlist.GenWithStackByArgs(
					fmt.Sprintf("component %s has bad value %q", fields[0], fields[3]))
			}
		}

		for _, node := range fields[1:3] {
			nodes[node] = true
			if isGround(node) {
				hasGround = true
			}
		}
	}

	if len(nodes) < 2 {
		return verrors.ErrInvalidNetlist.GenWithStackByArgs("circuit must have at least 2 nodes")
	}
	if !hasGround {
		logging.L().Warn("netlist has no ground node", zap.Int("nodes", len(nodes)))
	}
	return nil
}

// hasDirective reports whether the netlist already contains the given
// directive (".op", ".tran", ...), case-insensitively.
func hasDirective(netlist, directive string) bool {
	return strings.Contains(strings.ToLower(netlist), directive)
}

// insertBeforeEnd places a directive block immediately before ".end", or
// appends it if the netlist has no terminator yet.
func insertBeforeEnd(netlist, block string) string {
	if hasDirective(netlist, ".end") {
		return strings.Replace(netlist, ".end", block+"\n.end", 1)
	}
	return netlist + "\n" + block
}

// PrepareNetlist rewrites a raw netlist into a batch-ready deck for the
// requested analysis: title line, analysis directive, print commands, .end
// terminator. Directives already present in the source are left alone.
func PrepareNetlist(req *Request) (string, error) {
	netlist := strings.TrimSpace(req.Netlist)
	probes := ExtractProbes(netlist)

	name := req.CircuitName
	if name == "" {
		name = "Simulated Circuit"
	}
	if !strings.HasPrefix(strings.ToLower(netlist), ".title") {
		netlist = fmt.Sprintf(".title %s\n%s", name, netlist)
	}

	switch req.Analysis {
	case AnalysisOP:
		if !hasDirective(netlist, ".op") {
			netlist = insertBeforeEnd(netlist, ".op")
		}

	case AnalysisAC:
		p := req.Parameters
		sweep := p.SweepType
		if sweep == "" {
			sweep = "dec"
		}
		if !hasDirective(netlist, ".ac") {
			directive := fmt.Sprintf(".ac %s %d %g %g",
				sweep, p.NumberOfPoints, p.StartFrequency, p.StopFrequency)
			netlist = insertBeforeEnd(netlist, directive)
		}
		var items []string
		for _, node := range probes.Nodes {
			items = append(items, fmt.Sprintf("v(%s)", node))
		}
		if len(items) > 0 {
			netlist = insertBeforeEnd(netlist, ".print ac "+strings.Join(items, " "))
		}

	case AnalysisTransient:
		p := req.Parameters
		if _, err := ParseDuration(p.StepTime); err != nil {
			return "", err
		}
		if _, err := ParseDuration(p.EndTime); err != nil {
			return "", err
		}
		if !hasDirective(netlist, ".tran") {
			directive := fmt.Sprintf(".tran %s %s", p.StepTime, p.EndTime)
			netlist = insertBeforeEnd(netlist, directive)
		}
		var items []string
		for _, node := range probes.Nodes {
			items = append(items, fmt.Sprintf("v(%s)", node))
		}
		for _, src := range probes.Sources {
			items = append(items, fmt.Sprintf("i(%s)", src))
		}
		if len(items) > 0 {
			netlist = insertBeforeEnd(netlist, ".print tran "+strings.Join(items, " "))
		}

	default:
		return "", verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(
			fmt.Sprintf("unsupported analysis type %q", req.Analysis))
	}

	if !strings.HasSuffix(strings.TrimSpace(netlist), ".end") {
		netlist += "\n.end"
	}
	return netlist, nil
}

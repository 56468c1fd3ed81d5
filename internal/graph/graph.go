// Package graph generates DOT and Mermaid format dependency graphs from discovered resources.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// ParseFormat returns the format named s, or false if s names none.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatDOT, FormatMermaid:
		return Format(s), true
	}
	return "", false
}

// Generator creates dependency graphs from discovered resources.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(resources map[string]workshop.DiscoveredResource, w io.Writer) error {
	graph := g.buildGraph(resources)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(resources map[string]workshop.DiscoveredResource) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph structure from discovered resources.
func (g *Generator) buildGraph(resources map[string]workshop.DiscoveredResource) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)

	if g.ClusterByType {
		g.addClusteredNodes(graph, names, resources)
	} else {
		for _, name := range names {
			graph.Node(name).Label(nodeLabel(resources[name]))
		}
	}

	getAttRefs := buildGetAttSet(resources)
	for _, name := range names {
		for _, dep := range resources[name].Dependencies {
			if _, ok := resources[dep]; !ok {
				continue
			}
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if getAttRefs[name+"->"+dep] {
				e.Attr("color", "blue")
			}
		}
	}

	return graph
}

// buildGetAttSet creates a set of edges that are GetAtt references.
func buildGetAttSet(resources map[string]workshop.DiscoveredResource) map[string]bool {
	getAttRefs := make(map[string]bool)
	for name, res := range resources {
		for _, usage := range res.AttrRefUsages {
			getAttRefs[name+"->"+usage.ResourceName] = true
		}
	}
	return getAttRefs
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, names []string, resources map[string]workshop.DiscoveredResource) {
	var services []string
	byService := make(map[string][]string)
	for _, name := range names {
		service := Service(resources[name].Type)
		if _, seen := byService[service]; !seen {
			services = append(services, service)
		}
		byService[service] = append(byService[service], name)
	}
	sort.Strings(services)

	for _, service := range services {
		members := byService[service]
		if len(members) == 1 {
			// Single resource, no cluster needed
			graph.Node(members[0]).Label(nodeLabel(resources[members[0]]))
			continue
		}

		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			cluster.Node(name).Label(nodeLabel(resources[name]))
		}
	}
}

func nodeLabel(res workshop.DiscoveredResource) string {
	return res.Name + "\\n[" + res.Type + "]"
}

// Service extracts the AWS service name from a CloudFormation type.
// e.g., "AWS::ApiGateway::Method" -> "ApiGateway"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

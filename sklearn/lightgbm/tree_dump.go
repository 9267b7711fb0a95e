package lightgbm

import (
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// DrawGraph renders tree as a Graphviz graph, walking the same
// leftChild/rightChild encoding Predict uses. It is a debugging aid, not
// part of the learner's consumed/exposed interfaces: nothing in
// TreeGrower depends on it.
func (t *Tree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, err
	}
	if len(t.leftChild) == 0 {
		node, err := graph.CreateNode(fmt.Sprintf("leaf%d", 0))
		if err != nil {
			return nil, nil, err
		}
		node.Set("shape", "box")
		node.Set("label", t.leafLabel(0))
		return gv, graph, nil
	}
	if err := t.drawNode(graph, 0, nil); err != nil {
		return nil, nil, err
	}
	return gv, graph, nil
}

func (t *Tree) drawNode(graph *cgraph.Graph, node int32, parent *cgraph.Node) error {
	current, err := graph.CreateNode(fmt.Sprintf("node%d", node))
	if err != nil {
		return err
	}
	current.Set("label", t.splitLabel(node))
	if parent != nil {
		if _, err := graph.CreateEdge("", parent, current); err != nil {
			return err
		}
	}

	for _, child := range [2]int32{t.leftChild[node], t.rightChild[node]} {
		if child < 0 {
			leaf := int(^child)
			leafNode, err := graph.CreateNode(fmt.Sprintf("leaf%d", leaf))
			if err != nil {
				return err
			}
			leafNode.Set("shape", "box")
			leafNode.Set("label", t.leafLabel(leaf))
			if _, err := graph.CreateEdge("", current, leafNode); err != nil {
				return err
			}
			continue
		}
		if err := t.drawNode(graph, child, current); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) splitLabel(node int32) string {
	if t.decisionType[node]&decisionTypeCategorical != 0 {
		return fmt.Sprintf("feature %d in set (gain %.4g)", t.splitFeature[node], t.splitGain[node])
	}
	return fmt.Sprintf("feature %d <= %.4g (gain %.4g)", t.splitFeature[node], t.threshold[node], t.splitGain[node])
}

func (t *Tree) leafLabel(leaf int) string {
	return fmt.Sprintf("leaf %d\noutput %.4g\ncount %d", leaf, t.leafValue[leaf], t.leafCount[leaf])
}

// RenderPNG is a convenience wrapper writing tree's graph to a PNG file.
// Nothing in this package calls it; it is a debugging aid.
func RenderPNG(t *Tree, path string) error {
	gv, graph, err := t.DrawGraph()
	if err != nil {
		return err
	}
	defer gv.Close()
	return gv.RenderFilename(graph, graphviz.PNG, path)
}

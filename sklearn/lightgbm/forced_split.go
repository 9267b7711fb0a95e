package lightgbm

import "encoding/json"

// forcedSplitNode is the accepted shape of a forced-split skeleton node:
// {"feature": int, "threshold": number, "left": {...}, "right": {...}}.
// Any JSON library providing object-item and presence-check accessors
// would do; encoding/json's generic map decoding is enough here.
type forcedSplitNode struct {
	raw map[string]interface{}
}

func newForcedSplitNode(raw map[string]interface{}) (*forcedSplitNode, bool) {
	if raw == nil {
		return nil, false
	}
	if _, hasFeature := raw["feature"]; !hasFeature {
		return nil, false
	}
	if _, hasThreshold := raw["threshold"]; !hasThreshold {
		return nil, false
	}
	return &forcedSplitNode{raw: raw}, true
}

func (n *forcedSplitNode) feature() int {
	return int(n.raw["feature"].(float64))
}

func (n *forcedSplitNode) threshold() float64 {
	return n.raw["threshold"].(float64)
}

func (n *forcedSplitNode) child(key string) (*forcedSplitNode, bool) {
	sub, ok := n.raw[key]
	if !ok {
		return nil, false
	}
	m, ok := sub.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return newForcedSplitNode(m)
}

type forcedQueueEntry struct {
	node *forcedSplitNode
	leaf int
}

// forceSplits applies a caller-supplied split skeleton before greedy
// growth begins, per §4.7. It returns the number of splits performed and
// leaves g.smaller/g.larger positioned for the greedy loop to resume from.
//
// resolved persists the SplitInfo computed for a leaf at the moment its
// parent's two children were histogrammed, keyed by leaf id, mirroring
// serial_tree_learner.cpp's forceSplitMap. A skeleton naming both "left"
// and "right" at the same level enqueues both children before either is
// processed; without this map, processing the left entry's own g.split
// call would advance g.smaller/g.larger onto the left child's
// grandchildren, leaving the still-queued right entry's lookup with no
// leaf to bind to.
func (g *TreeGrower) forceSplits(tree *Tree, forcedSplitJSON []byte, gradients, hessians []float64) (int, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(forcedSplitJSON, &root); err != nil {
		return 0, err
	}
	rootNode, ok := newForcedSplitNode(root)
	if !ok {
		return 0, nil
	}

	queue := []forcedQueueEntry{{node: rootNode, leaf: 0}}
	resolved := make(map[int]SplitInfo)
	count := 0

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		forced, hasForced := resolved[entry.leaf]
		delete(resolved, entry.leaf)
		if !hasForced && count == 0 {
			// Only reached for the root entry: no parent step resolved it
			// ahead of time, so build its histogram and evaluate it now. A
			// child entry without a resolved split aborts the pass below.
			if ok := g.beforeFindBestSplit(tree, entry.leaf, -1); ok {
				if err := g.findBestSplits(gradients, hessians); err != nil {
					return count, err
				}
			}
			forced, hasForced = g.gatherForcedSplit(entry.node, entry.leaf)
		}
		if !hasForced || forced.Gain < 0 {
			g.abortedLastForceSplit = true
			break
		}

		g.bestSplitPerLeaf[entry.leaf] = forced
		newLeftLeaf, newRightLeaf, err := g.split(tree, entry.leaf)
		if err != nil {
			return count, err
		}
		count++

		leftChild, hasLeft := entry.node.child("left")
		rightChild, hasRight := entry.node.child("right")
		if !hasLeft && !hasRight {
			continue
		}

		// g.smaller/g.larger reference exactly {newLeftLeaf, newRightLeaf}
		// right after g.split. Resolve both forced children's thresholds
		// now, while that's true, rather than waiting until they're
		// dequeued (by which point a sibling's own split may have moved
		// g.smaller/g.larger on to its grandchildren).
		if ok := g.beforeFindBestSplit(tree, newLeftLeaf, newRightLeaf); ok {
			if err := g.findBestSplits(gradients, hessians); err != nil {
				return count, err
			}
		}

		if hasLeft {
			if split, ok := g.gatherForcedSplit(leftChild, newLeftLeaf); ok {
				resolved[newLeftLeaf] = split
			}
			queue = append(queue, forcedQueueEntry{node: leftChild, leaf: newLeftLeaf})
		}
		if hasRight {
			if split, ok := g.gatherForcedSplit(rightChild, newRightLeaf); ok {
				resolved[newRightLeaf] = split
			}
			queue = append(queue, forcedQueueEntry{node: rightChild, leaf: newRightLeaf})
		}
	}

	return count, nil
}

// gatherForcedSplit evaluates node's caller-chosen threshold against
// whichever of smaller/larger currently holds leaf.
func (g *TreeGrower) gatherForcedSplit(node *forcedSplitNode, leaf int) (SplitInfo, bool) {
	var ls *LeafSplits
	var bank *histogramBank
	if leaf == g.smaller.LeafID() {
		ls, bank = g.smaller, g.smallerBank
	} else if leaf == g.larger.LeafID() {
		ls, bank = g.larger, g.largerBank
	} else {
		return SplitInfo{}, false
	}

	real := node.feature()
	inner := g.dataset.InnerFeatureIndex(real)
	if inner < 0 {
		return SplitInfo{}, false
	}
	mapper := g.dataset.FeatureBinMapper(inner)
	view := NewFeatureHistogramView(inner, real, mapper, bank.FeatureEntries(inner), g.reg, g.params)
	bin := mapper.BinThreshold(node.threshold())

	split := view.GatherInfoForThreshold(ls.SumGradients(), ls.SumHessians(), bin, ls.NumData())
	return split, true
}

package spatialindex

import (
	"context"
	"math"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"go.uber.org/zap"
)

const (
	DefaultMinChildItems = 25
	DefaultMaxChildItems = 50
)

type RtreeBoundingBox struct {
	// number of dimensions
	Dim int
	// Edges[i][0] = low value, Edges[i][1] = high value
	// Edges[0] = {minLat, maxLat}, Edges[1] = {minLon, maxLon}
	Edges [][2]float64
}

func NewRtreeBoundingBox(dim int, minVal []float64, maxVal []float64) RtreeBoundingBox {
	b := RtreeBoundingBox{Dim: dim, Edges: make([][2]float64, dim)}
	for axis := 0; axis < dim; axis++ {
		b.Edges[axis] = [2]float64{minVal[axis], maxVal[axis]}
	}

	return b
}

func boxFromCorners(lo, hi datastructure.Coordinate) RtreeBoundingBox {
	return NewRtreeBoundingBox(2, []float64{lo.Lat, lo.Lon}, []float64{hi.Lat, hi.Lon})
}

func (b RtreeBoundingBox) lo() datastructure.Coordinate {
	return datastructure.NewCoordinate(b.Edges[0][0], b.Edges[1][0])
}

func (b RtreeBoundingBox) hi() datastructure.Coordinate {
	return datastructure.NewCoordinate(b.Edges[0][1], b.Edges[1][1])
}

func BoundingBox(b RtreeBoundingBox, bb RtreeBoundingBox) RtreeBoundingBox {
	newBound := RtreeBoundingBox{Dim: b.Dim, Edges: make([][2]float64, b.Dim)}

	for axis := 0; axis < b.Dim; axis++ {
		newBound.Edges[axis][0] = math.Min(b.Edges[axis][0], bb.Edges[axis][0])
		newBound.Edges[axis][1] = math.Max(b.Edges[axis][1], bb.Edges[axis][1])
	}

	return newBound
}

// area calculates the area (in N dimensions) of a bounding box.
func area(b RtreeBoundingBox) float64 {
	area := 1.0
	for axis := 0; axis < b.Dim; axis++ {
		area *= b.Edges[axis][1] - b.Edges[axis][0]
	}
	return area
}

// margin is the sum of the box side lengths. used to break ties between zero-area boxes.
func margin(b RtreeBoundingBox) float64 {
	m := 0.0
	for axis := 0; axis < b.Dim; axis++ {
		m += b.Edges[axis][1] - b.Edges[axis][0]
	}
	return m
}

// Overlaps checks if two closed bounding boxes overlap. touching boxes overlap.
func Overlaps(b RtreeBoundingBox, bb RtreeBoundingBox) bool {
	for axis := 0; axis < b.Dim; axis++ {
		if b.Edges[axis][0] > bb.Edges[axis][1] || bb.Edges[axis][0] > b.Edges[axis][1] {
			/*
				____________________	______________________
				|	b				|   |					   |
				|					|   |			bb		   |
				|	   				|   |					   |
				____________________    |  ____________________
			*/
			return false
		}
	}

	return true
}

// IsBBSame determines if two bounding boxes are identical
func (b *RtreeBoundingBox) IsBBSame(bb RtreeBoundingBox) bool {
	for axis := 0; axis < b.Dim; axis++ {
		if b.Edges[axis][0] != bb.Edges[axis][0] || b.Edges[axis][1] != bb.Edges[axis][1] {
			return false
		}
	}

	return true
}

// VertexObject is the data record stored in r-tree leaves.
type VertexObject struct {
	Index datastructure.Index
	ID    int64
	Lat   float64
	Lon   float64
}

func NewVertexObject(idx datastructure.Index, v datastructure.Vertex) VertexObject {
	return VertexObject{Index: idx, ID: v.ID, Lat: v.Coord.Lat, Lon: v.Coord.Lon}
}

func (o VertexObject) Coord() datastructure.Coordinate {
	return datastructure.NewCoordinate(o.Lat, o.Lon)
}

func (o VertexObject) GetBound() RtreeBoundingBox {
	return NewRtreeBoundingBox(2, []float64{o.Lat, o.Lon}, []float64{o.Lat, o.Lon})
}

// rtree node. can be either a leaf node or a internal node or leafData.
type RtreeNode struct {
	// entries. can be either a leaf node or a internal node.
	// leafNode has items in the form of a list of leafData (*RtreeNode with 0 Items & a Leaf)
	Items  []*RtreeNode
	Parent *RtreeNode

	Bound RtreeBoundingBox
	// isLeaf. true if this node is a leafNode.
	IsLeaf bool

	Leaf VertexObject // if this node is a leafData
}

func (node *RtreeNode) GetBound() RtreeBoundingBox {
	return node.Bound
}

func (node *RtreeNode) ComputeBB() RtreeBoundingBox {
	bb := node.Items[0].GetBound()
	for i := 1; i < len(node.Items); i++ {
		bb = BoundingBox(bb, node.Items[i].GetBound())
	}
	return bb
}

// Rtree is a Guttman r-tree over graph vertices. it is built once and read-only afterwards,
// so concurrent queries need no locking.
type Rtree struct {
	Root          *RtreeNode
	Size          int
	MinChildItems int
	MaxChildItems int
	Dimensions    int
	Height        int

	metric geo.Metric
}

func NewRtree(minChildItems, maxChildItems int, metric geo.Metric) *Rtree {

	return &Rtree{
		Root: &RtreeNode{
			IsLeaf: true,
			Items:  make([]*RtreeNode, 0, maxChildItems),
		},
		Size:          0,
		Height:        1,
		MinChildItems: minChildItems,
		MaxChildItems: maxChildItems,
		Dimensions:    2,
		metric:        metric,
	}

}

// BuildVertexRtree inserts every vertex of g in index order.
func BuildVertexRtree(g *datastructure.Graph, metric geo.Metric, log *zap.Logger) *Rtree {
	rt := NewRtree(DefaultMinChildItems, DefaultMaxChildItems, metric)
	for i, v := range g.Vertices() {
		if (i+1)%10000 == 0 {
			log.Debug("inserting vertices to r-tree...", zap.Int("count", i+1))
		}
		rt.InsertLeaf(NewVertexObject(datastructure.Index(i), v))
	}
	log.Info("vertex r-tree built", zap.Int("size", rt.Size), zap.Int("height", rt.Height),
		zap.String("metric", metric.Name()))
	return rt
}

func (rt *Rtree) Metric() geo.Metric {
	return rt.metric
}

func (rt *Rtree) InsertLeaf(leaf VertexObject) {
	newLeaf := &RtreeNode{
		Bound: leaf.GetBound(),
		Leaf:  leaf,
	}

	// I1. [Find position for new record.] Invoke ChooseLeaf to select a leaf node L in which to place E.
	leafNode := rt.chooseLeaf(rt.Root, newLeaf.Bound)
	// I2. [Add record to leaf node.]
	leafNode.Items = append(leafNode.Items, newLeaf)
	newLeaf.Parent = leafNode
	rt.Size++

	var l, ll *RtreeNode
	l = leafNode
	if len(leafNode.Items) > rt.MaxChildItems {
		l, ll = rt.SplitNode(leafNode)
	}

	// I3. [Propagate changes upward.]
	p, pp := rt.adjustTree(l, ll)
	if pp != nil {
		// I4. [Grow tree taller.] If node split propagation caused the root to split,
		// create a new root whose children are the two resulting nodes.
		rt.Root = &RtreeNode{
			Items: []*RtreeNode{p, pp},
		}
		p.Parent = rt.Root
		pp.Parent = rt.Root
		rt.Height++

		rt.Root.Bound = rt.Root.ComputeBB()
	}
}

func (rt *Rtree) adjustTree(n, nn *RtreeNode) (*RtreeNode, *RtreeNode) {
	for {
		// AT3. [Adjust covering rectangle in parent entry.]
		n.Bound = n.ComputeBB()
		if nn != nil {
			nn.Bound = nn.ComputeBB()
		}

		// AT2. [Check if done.] If N is the root, stop.
		if n == rt.Root {
			return n, nn
		}

		p := n.Parent

		// AT4. [Propagate node split upward.] If N has a partner NN resulting from an
		// earlier split, add NN to P, splitting P if there is no room.
		if nn != nil {
			nn.Parent = p
			p.Items = append(p.Items, nn)
			if len(p.Items) > rt.MaxChildItems {
				// AT5. [Move up to next level.]
				n, nn = rt.SplitNode(p)
				continue
			}
		}

		n, nn = p, nil
	}
}

// SplitNode quadratic-cost split with linear seed selection.
func (rt *Rtree) SplitNode(l *RtreeNode) (*RtreeNode, *RtreeNode) {
	// QS1. [Pick first entry for each group.]
	firstEntryGroupOne, firstEntryGroupTwo := rt.linearPickSeeds(l)

	remaining := make([]*RtreeNode, 0, len(l.Items)-2)
	for i := 0; i < len(l.Items); i++ {
		if l.Items[i] != firstEntryGroupOne && l.Items[i] != firstEntryGroupTwo {
			remaining = append(remaining, l.Items[i])
		}
	}

	groupOne := l
	groupOne.Items = []*RtreeNode{firstEntryGroupOne}
	firstEntryGroupOne.Parent = groupOne

	groupTwo := &RtreeNode{
		Parent: l.Parent,
		Items:  []*RtreeNode{firstEntryGroupTwo},
		IsLeaf: l.IsLeaf,
	}
	firstEntryGroupTwo.Parent = groupTwo

	// QS2. [Check if done.] If all entries have been assigned, stop. If one group has
	// so few entries that all the rest must be assigned to it in order for it to
	// have the minimum number m, assign them and stop.
	for len(remaining) > 0 {
		// QS3. [Select entry to assign.] Add it to the group whose covering rectangle will have to
		// be enlarged least to accommodate it. Resolve ties by adding the entry to
		// the group with smaller area, then to the one with fewer entries.
		groupOneBB := groupOne.ComputeBB()
		groupTwoBB := groupTwo.ComputeBB()
		nextEntryIdx := rt.pickNext(groupOneBB, groupTwoBB, remaining)
		next := remaining[nextEntryIdx]

		enlargementOne := area(BoundingBox(groupOneBB, next.GetBound())) - area(groupOneBB)
		enlargementTwo := area(BoundingBox(groupTwoBB, next.GetBound())) - area(groupTwoBB)
		if enlargementOne == enlargementTwo {
			// zero-area groups (collinear points) fall back to margin growth
			enlargementOne = margin(BoundingBox(groupOneBB, next.GetBound())) - margin(groupOneBB)
			enlargementTwo = margin(BoundingBox(groupTwoBB, next.GetBound())) - margin(groupTwoBB)
		}

		var target *RtreeNode
		switch {
		case len(groupOne.Items)+len(remaining) <= rt.MinChildItems:
			target = groupOne
		case len(groupTwo.Items)+len(remaining) <= rt.MinChildItems:
			target = groupTwo
		case enlargementOne < enlargementTwo:
			target = groupOne
		case enlargementOne > enlargementTwo:
			target = groupTwo
		case area(groupOneBB) < area(groupTwoBB):
			target = groupOne
		case area(groupOneBB) > area(groupTwoBB):
			target = groupTwo
		case len(groupOne.Items) <= len(groupTwo.Items):
			target = groupOne
		default:
			target = groupTwo
		}

		target.Items = append(target.Items, next)
		next.Parent = target

		remaining = append(remaining[:nextEntryIdx], remaining[nextEntryIdx+1:]...)
	}

	groupOne.Bound = groupOne.ComputeBB()
	groupTwo.Bound = groupTwo.ComputeBB()
	return groupOne, groupTwo
}

func (rt *Rtree) pickNext(groupOneBB, groupTwoBB RtreeBoundingBox, remaining []*RtreeNode) int {
	/*
		PN1. [Determine cost of putting each entry in each group.] For each entry
		E not yet in a group, calculate d1 = the area increase required in the
		covering rectangle of Group 1 to include E.I. Calculate d2 similarly for Group 2

		PN2. [Find entry with greatest preference for one group.] Choose any entry
		with the maximum difference between d1 and d2
	*/
	chosen := 0
	maxDiff := math.Inf(-1)
	for i := 0; i < len(remaining); i++ {
		d1 := area(BoundingBox(groupOneBB, remaining[i].GetBound())) - area(groupOneBB)
		d2 := area(BoundingBox(groupTwoBB, remaining[i].GetBound())) - area(groupTwoBB)

		d := math.Abs(d1 - d2)
		if d > maxDiff {
			chosen = i
			maxDiff = d
		}
	}
	return chosen
}

/*
LPS1. [Find extreme rectangles along all dimensions.] Along each dimension,
find the entry whose rectangle has the highest low side, and the one
with the lowest high side. Record the separation.

LPS2. [Adjust for shape of the rectangle cluster.] Normalize the separations
by dividing by the width of the entire set along the corresponding dimension.

LPS3. [Select the most extreme pair.] Choose the pair with the greatest
normalized separation along any dimension.
*/
func (rt *Rtree) linearPickSeeds(l *RtreeNode) (*RtreeNode, *RtreeNode) {

	entryOne := l.Items[0]
	entryTwo := l.Items[1]

	greatestNormalizedSeparation := math.Inf(-1)
	for axis := 0; axis < rt.Dimensions; axis++ {
		lowestHighSide := math.Inf(1)
		highestLowSide := math.Inf(-1)

		highestHighSide := math.Inf(-1)
		lowestLowSide := math.Inf(1)

		lowestHighSideIdx := 0
		highestLowSideIdx := 0

		for i := 0; i < len(l.Items); i++ {
			lowSideEdge := l.Items[i].Bound.Edges[axis][0]
			if lowSideEdge > highestLowSide {
				highestLowSide = lowSideEdge
				highestLowSideIdx = i
			}
			lowestLowSide = math.Min(lowestLowSide, lowSideEdge)

			highSideEdge := l.Items[i].Bound.Edges[axis][1]
			if highSideEdge < lowestHighSide {
				lowestHighSide = highSideEdge
				lowestHighSideIdx = i
			}
			highestHighSide = math.Max(highestHighSide, highSideEdge)
		}

		widthAlongDimension := highestHighSide - lowestLowSide
		if widthAlongDimension <= 0 || highestLowSideIdx == lowestHighSideIdx {
			continue
		}

		separation := (highestLowSide - lowestHighSide) / widthAlongDimension
		if separation > greatestNormalizedSeparation {
			greatestNormalizedSeparation = separation
			entryOne = l.Items[highestLowSideIdx]
			entryTwo = l.Items[lowestHighSideIdx]
		}
	}

	return entryOne, entryTwo
}

/*
CL1. [Initialize.] Set N to be the root node.
CL2. [Leaf check.] If N is a leaf, return N.
CL3. [Choose subtree.] If N is not a leaf, let F be the entry in N whose rectangle F.I needs least
enlargement to include E.I. Resolve ties by choosing the entry with the rectangle of smallest area.
CL4. [Descend until a leaf is reached.] Set N to be the child node pointed to by F.p and repeat from CL2.
*/
func (rt *Rtree) chooseLeaf(node *RtreeNode, bound RtreeBoundingBox) *RtreeNode {
	for !node.IsLeaf {
		minAreaEnlargement := math.MaxFloat64
		minArea := math.MaxFloat64
		chosen := 0
		for i, item := range node.Items {
			itembb := item.GetBound()
			bb := BoundingBox(itembb, bound)

			enlargement := area(bb) - area(itembb)
			if enlargement < minAreaEnlargement ||
				(enlargement == minAreaEnlargement && area(itembb) < minArea) {
				minAreaEnlargement = enlargement
				minArea = area(itembb)
				chosen = i
			}
		}
		node = node.Items[chosen]
	}
	return node
}

// Search returns every vertex inside the box [lo, hi].
func (rt *Rtree) Search(lo, hi datastructure.Coordinate) []VertexObject {
	if rt.Size == 0 {
		return []VertexObject{}
	}
	return rt.search(rt.Root, boxFromCorners(lo, hi), []VertexObject{})
}

func (rt *Rtree) search(node *RtreeNode, bound RtreeBoundingBox,
	results []VertexObject) []VertexObject {

	// S1. [Search subtrees.] If T is not a leaf, check each entry E to determine
	// whether E.I Overlaps S. For all overlapping entries, invoke Search on the tree
	// whose root node is pointed to by E.p
	// S2. [Search leaf node.] If T is a leaf, check all entries E to determine whether E.I
	// Overlaps S. If so, E is a qualifying record
	for _, e := range node.Items {
		if !Overlaps(e.GetBound(), bound) {
			continue
		}
		if node.IsLeaf {
			results = append(results, e.Leaf)
		} else {
			results = rt.search(e, bound, results)
		}
	}

	return results
}

// minDist lower bound of the distance from p to anything inside r.
func (rt *Rtree) minDist(p datastructure.Coordinate, r RtreeBoundingBox) float64 {
	return rt.metric.BoxDistance(p, r.lo(), r.hi())
}

// https://dl.acm.org/doi/pdf/10.1145/320248.320255 (Fig. 4. incremental nearest neighbor algorithm)
// vertices are reported in (distance, id) order until callback returns false.
func (rt *Rtree) incrementalNearestNeighbor(p datastructure.Coordinate, callback func(Neighbor) bool) {
	if rt.Size == 0 {
		return
	}
	pq := newRtreeHeap()
	pq.Insert(rtreeQueueItem{rank: rt.minDist(p, rt.Root.Bound), node: rt.Root})

	for pq.Size() > 0 {
		element, ok := pq.ExtractMin()
		if !ok {
			return
		}

		if element.node == nil {
			obj := element.object
			if !callback(Neighbor{Vertex: obj.Index, ID: obj.ID, Coord: obj.Coord(), Distance: element.rank}) {
				return
			}
			continue
		}

		for _, item := range element.node.Items {
			if element.node.IsLeaf {
				pq.Insert(rtreeQueueItem{rank: rt.metric.Distance(p, item.Leaf.Coord()), object: item.Leaf})
			} else {
				pq.Insert(rtreeQueueItem{rank: rt.minDist(p, item.Bound), node: item})
			}
		}
	}
}

// Nearest returns the closest vertex to p, the lowest vertex id among equidistant ones.
func (rt *Rtree) Nearest(_ context.Context, p datastructure.Coordinate) (Neighbor, bool, error) {
	nearest := Neighbor{}
	found := false

	rt.incrementalNearestNeighbor(p, func(n Neighbor) bool {
		nearest = n
		found = true
		return false
	})

	return nearest, found, nil
}

// NearestK returns up to k vertices ordered by (distance, id).
func (rt *Rtree) NearestK(p datastructure.Coordinate, k int) []Neighbor {
	if k <= 0 {
		return []Neighbor{}
	}
	nearestLists := make([]Neighbor, 0, min(k, rt.Size))

	rt.incrementalNearestNeighbor(p, func(n Neighbor) bool {
		nearestLists = append(nearestLists, n)
		return len(nearestLists) < k
	})

	return nearestLists
}

// WithinRadius returns vertices with distance <= radius ordered by (distance, id),
// at most limit of them. limit <= 0 means no limit.
func (rt *Rtree) WithinRadius(p datastructure.Coordinate, radius float64, limit int) []Neighbor {
	nearestLists := make([]Neighbor, 0)

	rt.incrementalNearestNeighbor(p, func(n Neighbor) bool {
		if n.Distance > radius {
			return false
		}
		nearestLists = append(nearestLists, n)
		return limit <= 0 || len(nearestLists) < limit
	})

	return nearestLists
}

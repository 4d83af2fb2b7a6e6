package report

import (
	"fmt"

	"github.com/emicklei/dot"

	"dmsched/internal/job"
)

// ResourceGraph links every task to the resources its sections lock. Edges
// carry the total time the task holds the resource, resources show the
// highest locker priority used by HLP.
func ResourceGraph(tasks *job.TaskSet) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	resources := make(map[job.ResourceID]dot.Node)
	for _, r := range tasks.Resources() {
		resources[r] = g.Node(fmt.Sprintf("R%d", r)).
			Attr("shape", "box").
			Attr("label", fmt.Sprintf("R%d\nceiling %.4f", r, tasks.Ceiling(r)))
	}

	for _, t := range tasks.Tasks() {
		n := g.Node(fmt.Sprintf("T%d", t.ID)).
			Attr("label", fmt.Sprintf("T%d\nD=%d prio %.4f", t.ID, t.RelativeDeadline, t.BasePriority))

		held := make(map[job.ResourceID]job.Tick)
		for _, sec := range t.Sections {
			if sec.Resource != job.NoResource {
				held[sec.Resource] += sec.Length
			}
		}
		for _, r := range t.Resources() {
			g.Edge(n, resources[r], fmt.Sprintf("%d", held[r]))
		}
	}
	return g
}

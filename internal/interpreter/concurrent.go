package interpreter

import (
	"fmt"
	"log/slog"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"
	"brisk/internal/util/future"

	"github.com/google/uuid"
)

// evalJoin runs every member concurrently in a fork of cx and waits for all
// of them. Members keep running when a sibling fails; the first error in
// source order is reported once all are done.
func (in *Interpreter) evalJoin(node *ast.Join, cx *runtime.Context) (object.Object, error) {
	if err := uniqueMembers(node.Members); err != nil {
		return nil, err
	}
	forks, futures, err := in.fanOut(node.Members, cx)
	if err != nil {
		return nil, err
	}
	outcomes, err := future.Settle(futures...).Await()
	if err != nil {
		return nil, err
	}
	values := make([]object.Object, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			return nil, outcome.Err
		}
		if outcome.Value == nil {
			return nil, runtime.Link(fmt.Errorf("%w: %s (%s)",
				runtime.ErrFailToFindJoinResult, node.Members[i].Md().Uuid, forks[i].Job.Alias), node.Members[i])
		}
		values[i] = outcome.Value
	}
	return object.NewVec(values...), nil
}

// evalOneOf runs command members concurrently. The first successful one wins
// and the others are cancelled; when none succeeds the first member's result
// is returned.
func (in *Interpreter) evalOneOf(node *ast.OneOf, cx *runtime.Context) (object.Object, error) {
	if len(node.Members) == 0 {
		return nil, runtime.Link(fmt.Errorf("%w: one_of needs at least one command",
			object.ErrInvalidValueType), node)
	}
	for _, member := range node.Members {
		if _, ok := member.(*ast.Command); !ok {
			return nil, runtime.Link(fmt.Errorf("%w: one_of accepts commands only, got %T",
				object.ErrInvalidValueType, member), member)
		}
	}
	if err := uniqueMembers(node.Members); err != nil {
		return nil, err
	}
	forks, futures, err := in.fanOut(node.Members, cx)
	if err != nil {
		return nil, err
	}
	winner, err := future.FirstMatch(succeeded, futures...).Await()
	in.cancelAll(forks)
	// reap the losers before reporting
	if _, settleErr := future.Settle(futures...).Await(); settleErr != nil {
		slog.Warn("one_of: settling members", slog.Any("error", settleErr))
	}
	return winner, err
}

func succeeded(val object.Object, err error) bool {
	res, ok := val.(*object.ExecuteResult)
	return err == nil && ok && res.IsSuccess()
}

// fanOut forks one branch per member and starts evaluating each in its own
// goroutine.
func (in *Interpreter) fanOut(members []ast.Node, cx *runtime.Context) ([]*runtime.Context, []*future.Future[object.Object], error) {
	forks := make([]*runtime.Context, 0, len(members))
	futures := make([]*future.Future[object.Object], 0, len(members))
	for _, member := range members {
		fork, err := cx.Fork(member.String())
		if err != nil {
			in.cancelAll(forks)
			_, _ = future.Settle(futures...).Await()
			return nil, nil, runtime.Link(err, member)
		}
		forks = append(forks, fork)
		futures = append(futures, in.runMember(member, fork))
	}
	return forks, futures, nil
}

func (in *Interpreter) runMember(member ast.Node, fork *runtime.Context) *future.Future[object.Object] {
	return future.New(func() (object.Object, error) {
		val, err := in.Eval(member, fork)
		state := reporter.JobDone
		if err != nil {
			state = reporter.JobFailed
		}
		if fork.Job.Cancelled() {
			state = reporter.JobCancelled
		}
		if closeErr := fork.Close(state); err == nil {
			err = closeErr
		}
		return val, err
	})
}

func (in *Interpreter) cancelAll(forks []*runtime.Context) {
	jobs := in.rt.Jobs()
	for _, fork := range forks {
		if err := jobs.Cancel(fork.Job.Owner); err != nil {
			slog.Warn("fail to cancel member", slog.String("alias", fork.Job.Alias), slog.Any("error", err))
		}
	}
}

func uniqueMembers(members []ast.Node) error {
	seen := make(map[uuid.UUID]struct{}, len(members))
	for _, member := range members {
		id := member.Md().Uuid
		if _, ok := seen[id]; ok {
			return runtime.Link(fmt.Errorf("%w: %s", runtime.ErrSomeNodesHadSameUuid, id), member)
		}
		seen[id] = struct{}{}
	}
	return nil
}

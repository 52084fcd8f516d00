package runtime

import (
	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"

	"github.com/google/uuid"
)

const (
	ScopesService  = "scopes"
	TypesService   = "types"
	FnsService     = "fns"
	ReturnsService = "returns"
	LoopsService   = "loops"
	JobsService    = "jobs"
	SignalsService = "signals"
	JournalService = "journal"
	SqlService     = "sql"
)

// Result is the reply payload of every store operation.
type Result[T any] struct {
	Value T
	Err   error
}

// Scope store messages
// ====================

type ScopeOpen struct {
	Owner uuid.UUID
	Cwd   string
}

type ScopeFork struct {
	Parent uuid.UUID
	Child  uuid.UUID
}

type ScopeClose struct {
	Owner uuid.UUID
}

type ScopeEnter struct {
	Owner uuid.UUID
	Level uuid.UUID
}

type ScopeLeave struct {
	Owner uuid.UUID
}

type ScopeInsert struct {
	Owner uuid.UUID
	Name  string
	Value object.Object
}

type ScopeUpdate struct {
	Owner uuid.UUID
	Name  string
	Value object.Object
}

type ScopeLookup struct {
	Owner uuid.UUID
	Name  string
}

type ScopeGlobal struct {
	Name  string
	Value object.Object
}

type ScopeSetParent struct {
	Owner uuid.UUID
	Value object.Object
}

type ScopeWithdrawParent struct {
	Owner uuid.UUID
}

type ScopeDropParent struct {
	Owner uuid.UUID
}

type ScopeSetCwd struct {
	Owner uuid.UUID
	Cwd   string
}

type ScopeCwd struct {
	Owner uuid.UUID
}

// Return store messages
// =====================

type ReturnOpen struct {
	Owner uuid.UUID
	Cx    uuid.UUID
}

type ReturnClose struct {
	Owner uuid.UUID
}

type ReturnSet struct {
	Owner uuid.UUID
	Value object.Object
}

type ReturnWithdraw struct {
	Owner uuid.UUID
	Cx    uuid.UUID
}

type ReturnIsPending struct {
	Owner uuid.UUID
}

type ReturnDrop struct {
	Owner uuid.UUID
}

// Loop store messages
// ===================

type LoopOpen struct {
	Owner uuid.UUID
	Loop  uuid.UUID
}

type LoopClose struct {
	Owner uuid.UUID
}

type LoopBreak struct {
	Owner  uuid.UUID
	Target *uuid.UUID
}

type LoopIsBroken struct {
	Owner uuid.UUID
}

type LoopDrop struct {
	Owner uuid.UUID
}

// Registry messages
// =================

type TypesLoad struct {
	Table map[uuid.UUID]ast.Ty
}

type TypeOf struct {
	Node uuid.UUID
}

type FnsLoad struct {
	Anchor *ast.Anchor
}

type FnRegister struct {
	Desc *FnDescriptor
}

type TaskLookup struct {
	Component string
	Task      string
}

type TaskNames struct{}

type FnLookup struct {
	Name string
}

type FnNames struct{}

type ClosureRegister struct {
	Decl *ast.ClosureDeclaration
}

type ClosureLookup struct {
	Uuid uuid.UUID
}

// Job store messages
// ==================

type JobRegister struct {
	Alias  string
	Owner  uuid.UUID
	Parent uuid.UUID
}

type JobFinish struct {
	Owner uuid.UUID
	State reporter.JobState
}

type JobCancel struct {
	Owner uuid.UUID
}

type JobSnapshot struct{}

// Journal messages
// ================

type JournalWrite struct {
	Record reporter.Record
}

type JournalJob struct {
	Event reporter.JobEvent
}

type JournalTail struct {
	N int
}

// Signal messages
// ===============

type SignalEmit struct {
	Name string
}

type SignalWait struct {
	Name string
}

type SignalWaiters struct {
	Name string
}

// SQL messages
// ============

type SqlOpen struct {
	Driver string
	Dsn    string
}

type SqlExec struct {
	Handle int
	Query  string
	Params []any
}

type SqlQuery struct {
	Handle int
	Query  string
	Params []any
}

type SqlClose struct {
	Handle int
}

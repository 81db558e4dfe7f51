package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/prestolend/lending-api/internal/models"
)

// ErrInvalidTransition is returned when the requested status is not
// reachable from the loan's current status.
var ErrInvalidTransition = errors.New("invalid loan status transition")

// loanTransitions is the fixed directed graph of loan statuses. Every hop
// must be explicit; there are no implicit multi-hop transitions. Statuses
// absent from the map are terminal.
var loanTransitions = map[string][]string{
	models.LoanStatusDraft:                {models.LoanStatusPending, models.LoanStatusCancelled},
	models.LoanStatusPending:              {models.LoanStatusUnderReview, models.LoanStatusRejected, models.LoanStatusCancelled},
	models.LoanStatusUnderReview:          {models.LoanStatusApproved, models.LoanStatusRejected, models.LoanStatusCounterOffered},
	models.LoanStatusApproved:             {models.LoanStatusFunding, models.LoanStatusRejected, models.LoanStatusCancelled},
	models.LoanStatusFunding:              {models.LoanStatusPartiallyFunded, models.LoanStatusFullyFunded, models.LoanStatusCancelled},
	models.LoanStatusPartiallyFunded:      {models.LoanStatusFullyFunded, models.LoanStatusCancelled},
	models.LoanStatusFullyFunded:          {models.LoanStatusReadyForDisbursement},
	models.LoanStatusReadyForDisbursement: {models.LoanStatusDisbursed},
	models.LoanStatusDisbursed:            {models.LoanStatusActive},
	models.LoanStatusActive:               {models.LoanStatusInRepayment, models.LoanStatusOverdue},
	models.LoanStatusInRepayment:          {models.LoanStatusCompleted, models.LoanStatusOverdue, models.LoanStatusPaidEarly},
	models.LoanStatusOverdue:              {models.LoanStatusDefaulted, models.LoanStatusGracePeriod},
	models.LoanStatusGracePeriod:          {models.LoanStatusInRepayment, models.LoanStatusDefaulted},
	models.LoanStatusDefaulted:            {models.LoanStatusCollections, models.LoanStatusWrittenOff, models.LoanStatusLegalAction},
	models.LoanStatusCollections:          {models.LoanStatusWrittenOff, models.LoanStatusLegalAction},
	models.LoanStatusDisputed:             {models.LoanStatusLegalAction, models.LoanStatusActive},
	models.LoanStatusLegalAction:          {models.LoanStatusWrittenOff},
	models.LoanStatusCounterOffered:       {models.LoanStatusPending, models.LoanStatusRejected},
}

// buildEvents inverts the transition graph into fsm events, one event per
// target status, so a transition request is just the target's name.
func buildEvents() fsm.Events {
	sources := make(map[string][]string)
	for from, targets := range loanTransitions {
		for _, to := range targets {
			sources[to] = append(sources[to], from)
		}
	}

	events := make(fsm.Events, 0, len(sources))
	for target, src := range sources {
		events = append(events, fsm.EventDesc{Name: target, Src: src, Dst: target})
	}
	return events
}

// LoanFSM wraps a loan with its state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a state machine positioned at the loan's current status
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	return &LoanFSM{
		loan: loan,
		fsm:  fsm.NewFSM(loan.Status, buildEvents(), fsm.Callbacks{}),
	}
}

// Transition moves the loan to the target status. The loan is left
// untouched when the edge is not in the graph.
func (l *LoanFSM) Transition(ctx context.Context, target string) error {
	if !l.fsm.Can(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.loan.Status, target)
	}

	if err := l.fsm.Event(ctx, target); err != nil {
		return fmt.Errorf("%w: %s -> %s: %v", ErrInvalidTransition, l.loan.Status, target, err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if the loan may move to the target status
func (l *LoanFSM) Can(target string) bool {
	return l.fsm.Can(target)
}

// AllowedTargets returns the statuses reachable from the given status
func AllowedTargets(status string) []string {
	targets := loanTransitions[status]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether the edge from -> to exists in the graph
func CanTransition(from, to string) bool {
	for _, t := range loanTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

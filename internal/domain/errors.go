package domain

import "errors"

// Domain errors
var (
	ErrUnauthorized         = errors.New("only the game manager can do that")
	ErrAlreadyInProgress    = errors.New("a game is already in progress")
	ErrNoGame               = errors.New("no game is currently in progress")
	ErrAlreadyInTeam        = errors.New("player is already in a team")
	ErrNotInTeam            = errors.New("player is not currently in a team")
	ErrPlayerNotFound       = errors.New("player is not part of any team")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamNameTaken        = errors.New("team name is already taken")
	ErrNoTeams              = errors.New("no teams available")
	ErrSameTeam             = errors.New("cannot assassinate a member of your own team")
	ErrTargetTeamEliminated = errors.New("target team has already been eliminated")
	ErrNoProof              = errors.New("no assassination proof provided")
	ErrClaimStale           = errors.New("claim no longer matches the current team state")
	ErrDisputeNotFound      = errors.New("dispute not found")
)

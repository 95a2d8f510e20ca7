package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/governance/ballot-engine/domain/entities"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	"ballotbox/contexts/governance/ballot-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the ballot schema. Safe to call on every boot.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&ballotModel{},
		&ballotVoterModel{},
		&ballotProposalModel{},
		&outboxModel{},
	)
}

func (r *Repository) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := ballotModelFromEntity(ballot)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		voters := voterModelsFromEntity(ballot)
		if len(voters) > 0 {
			if err := tx.Create(&voters).Error; err != nil {
				return err
			}
		}
		proposals := proposalModelsFromEntity(ballot)
		if len(proposals) > 0 {
			if err := tx.Create(&proposals).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("ballot_repo_create_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballot.BallotID),
		)
	}
	return nil
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error) {
	var ballot entities.Ballot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadBallot(tx, strings.TrimSpace(ballotID), false)
		if err != nil {
			return err
		}
		ballot = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrBallotNotFound) {
			return entities.Ballot{}, err
		}
		return entities.Ballot{}, r.logError("ballot_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return ballot, nil
}

// UpdateBallot serializes mutations per ballot by locking the ballot row FOR
// UPDATE for the whole transaction. A failed apply rolls everything back.
func (r *Repository) UpdateBallot(
	ctx context.Context,
	ballotID string,
	apply func(*entities.Ballot) error,
) (entities.Ballot, error) {
	var ballot entities.Ballot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadBallot(tx, strings.TrimSpace(ballotID), true)
		if err != nil {
			return err
		}
		if err := apply(&loaded); err != nil {
			return err
		}
		if err := persistBallot(tx, loaded); err != nil {
			return err
		}
		ballot = loaded
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Ballot{}, err
		}
		return entities.Ballot{}, r.logError("ballot_repo_update_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return ballot, nil
}

func (r *Repository) ListBallots(ctx context.Context) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_ballots_failed", err)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		ballot, err := r.GetBallot(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, ballot)
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:           uuid.NewString(),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ballot_repo_append_outbox_failed", err,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).Error
	if err != nil {
		return r.logError("ballot_repo_mark_outbox_published_failed", err,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func loadBallot(tx *gorm.DB, ballotID string, forUpdate bool) (entities.Ballot, error) {
	query := tx.Where("id = ?", ballotID)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row ballotModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrBallotNotFound
		}
		return entities.Ballot{}, err
	}

	var voterRows []ballotVoterModel
	if err := tx.Where("ballot_id = ?", ballotID).Find(&voterRows).Error; err != nil {
		return entities.Ballot{}, err
	}
	var proposalRows []ballotProposalModel
	if err := tx.Where("ballot_id = ?", ballotID).Order("idx ASC").Find(&proposalRows).Error; err != nil {
		return entities.Ballot{}, err
	}

	ballot := row.toEntity()
	ballot.Voters = make(map[string]entities.Voter, len(voterRows))
	for _, voterRow := range voterRows {
		voter := voterRow.toEntity()
		ballot.Voters[voter.VoterID] = voter
	}
	ballot.Proposals = make([]entities.Proposal, 0, len(proposalRows))
	for _, proposalRow := range proposalRows {
		ballot.Proposals = append(ballot.Proposals, entities.Proposal{
			Name:      proposalRow.Name,
			VoteCount: proposalRow.VoteCount,
		})
	}
	return ballot, nil
}

func persistBallot(tx *gorm.DB, ballot entities.Ballot) error {
	if err := tx.Model(&ballotModel{}).
		Where("id = ?", ballot.BallotID).
		Update("updated_at", ballot.UpdatedAt.UTC()).Error; err != nil {
		return err
	}

	voters := voterModelsFromEntity(ballot)
	if len(voters) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ballot_id"}, {Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight", "has_voted", "delegate", "voted_proposal", "updated_at",
			}),
		}).Create(&voters).Error; err != nil {
			return err
		}
	}

	for idx, proposal := range ballot.Proposals {
		if err := tx.Model(&ballotProposalModel{}).
			Where("ballot_id = ? AND idx = ?", ballot.BallotID, idx).
			Update("vote_count", proposal.VoteCount).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "governance/ballot-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ballot repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrBallotNotFound) ||
		errors.Is(err, domainerrors.ErrNotChairperson) ||
		errors.Is(err, domainerrors.ErrAlreadyRegistered) ||
		errors.Is(err, domainerrors.ErrNotEligible) ||
		errors.Is(err, domainerrors.ErrAlreadyVoted) ||
		errors.Is(err, domainerrors.ErrProposalOutOfRange)
}

// SystemClock satisfies ports.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies ports.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

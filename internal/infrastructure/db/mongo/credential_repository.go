package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// Each actor kind has its own collection, so logins are unique per kind.
const (
	collectionEndUsers     = "end_users"
	collectionStudios      = "studios"
	collectionMasterAdmins = "master_admins"
)

func actorCollection(kind domain.ActorKind) (string, error) {
	switch kind {
	case domain.KindEndUser:
		return collectionEndUsers, nil
	case domain.KindStudio:
		return collectionStudios, nil
	case domain.KindMasterAdmin:
		return collectionMasterAdmins, nil
	default:
		return "", fmt.Errorf("%w: actor kind %d", domain.ErrInvalidInput, kind)
	}
}

// CredentialRepository implements ports.CredentialStore on MongoDB.
type CredentialRepository struct {
	db *mongo.Database
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{db: db}
}

var _ ports.CredentialStore = (*CredentialRepository)(nil)

// actorDoc holds the credential fields shared by every actor collection.
// Studio documents carry tenant fields too; they are ignored here.
type actorDoc struct {
	ID           string    `bson:"_id"`
	Login        string    `bson:"login"`
	DisplayName  string    `bson:"display_name,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	Active       bool      `bson:"active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d actorDoc) toDomain(kind domain.ActorKind) *domain.Actor {
	return &domain.Actor{
		ID:           d.ID,
		Kind:         kind,
		Login:        d.Login,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *CredentialRepository) coll(kind domain.ActorKind) (*mongo.Collection, error) {
	name, err := actorCollection(kind)
	if err != nil {
		return nil, err
	}
	return r.db.Collection(name), nil
}

func (r *CredentialRepository) Create(ctx context.Context, actor *domain.Actor) (*domain.Actor, error) {
	coll, err := r.coll(actor.Kind)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := actorDoc{
		ID:           actor.ID,
		Login:        actor.Login,
		DisplayName:  actor.DisplayName,
		PasswordHash: actor.PasswordHash,
		Active:       actor.Active,
		CreatedAt:    actor.CreatedAt,
		UpdatedAt:    actor.UpdatedAt,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert %s: %w", actor.Kind, err)
	}
	return doc.toDomain(actor.Kind), nil
}

func (r *CredentialRepository) FindByLogin(ctx context.Context, kind domain.ActorKind, login string) (*domain.Actor, error) {
	return r.findOne(ctx, kind, bson.M{"login": login})
}

func (r *CredentialRepository) FindByID(ctx context.Context, kind domain.ActorKind, id string) (*domain.Actor, error) {
	return r.findOne(ctx, kind, bson.M{"_id": id})
}

func (r *CredentialRepository) findOne(ctx context.Context, kind domain.ActorKind, filter bson.M) (*domain.Actor, error) {
	coll, err := r.coll(kind)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc actorDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return doc.toDomain(kind), nil
}

func (r *CredentialRepository) SetActive(ctx context.Context, kind domain.ActorKind, id string, active bool) error {
	return r.update(ctx, kind, id, bson.M{"active": active})
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, kind domain.ActorKind, id, passwordHash string) error {
	return r.update(ctx, kind, id, bson.M{"password_hash": passwordHash})
}

func (r *CredentialRepository) update(ctx context.Context, kind domain.ActorKind, id string, set bson.M) error {
	coll, err := r.coll(kind)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC()
	res, err := coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const (
	collectionClients  = "clients"
	collectionProjects = "projects"
	collectionSections = "sections"
)

// TenantRepository implements ports.TenantRepository. Studios share the
// studios collection with the studio credentials.
type TenantRepository struct {
	db       *mongo.Database
	studios  *mongo.Collection
	clients  *mongo.Collection
	projects *mongo.Collection
	sections *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) *TenantRepository {
	return &TenantRepository{
		db:       db,
		studios:  db.Collection(collectionStudios),
		clients:  db.Collection(collectionClients),
		projects: db.Collection(collectionProjects),
		sections: db.Collection(collectionSections),
	}
}

var _ ports.TenantRepository = (*TenantRepository)(nil)

// WithinTx runs fn in a snapshot transaction. The driver re-runs fn on
// TransientTransactionError until ctx expires; a conflict still standing at
// that point is reported as domain.ErrTransactionConflict.
func (r *TenantRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TenantTx) error) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	tx := tenantTx{repo: r}
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, tx)
	}, txOpts)
	if err != nil {
		return mapTxError(err)
	}
	return nil
}

func mapTxError(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", domain.ErrTransactionConflict, err)
	}
	if mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrTransactionConflict, err)
	}
	return err
}

func (r *TenantRepository) FindStudio(ctx context.Context, id string) (*domain.Studio, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findStudio(ctx, r.studios, id)
}

func (r *TenantRepository) FindClient(ctx context.Context, id string) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findClient(ctx, r.clients, id)
}

func (r *TenantRepository) FindProject(ctx context.Context, id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findProject(ctx, r.projects, id)
}

func (r *TenantRepository) ListClients(ctx context.Context, studioID string) ([]domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findMany(ctx, r.clients, bson.M{"studio_id": studioID}, clientDoc.toDomain)
}

func (r *TenantRepository) ListProjects(ctx context.Context, clientID string) ([]domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findMany(ctx, r.projects, bson.M{"client_id": clientID}, projectDoc.toDomain)
}

func (r *TenantRepository) ListSections(ctx context.Context, projectID string) ([]domain.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return findMany(ctx, r.sections, bson.M{"project_id": projectID}, sectionDoc.toDomain,
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
}

// tenantTx runs every call on the session context it is given, so reads and
// writes join the surrounding transaction.
type tenantTx struct {
	repo *TenantRepository
}

var _ ports.TenantTx = tenantTx{}

func (t tenantTx) FindStudio(ctx context.Context, id string) (*domain.Studio, error) {
	return findStudio(ctx, t.repo.studios, id)
}

func (t tenantTx) FindClient(ctx context.Context, id string) (*domain.Client, error) {
	return findClient(ctx, t.repo.clients, id)
}

func (t tenantTx) FindProject(ctx context.Context, id string) (*domain.Project, error) {
	return findProject(ctx, t.repo.projects, id)
}

func (t tenantTx) ClientsByStudio(ctx context.Context, studioID string) ([]domain.Client, error) {
	return findMany(ctx, t.repo.clients, bson.M{"studio_id": studioID}, clientDoc.toDomain)
}

func (t tenantTx) ProjectsByClients(ctx context.Context, clientIDs []string) ([]domain.Project, error) {
	return findMany(ctx, t.repo.projects, bson.M{"client_id": bson.M{"$in": clientIDs}}, projectDoc.toDomain)
}

func (t tenantTx) SectionsByProjects(ctx context.Context, projectIDs []string) ([]domain.Section, error) {
	return findMany(ctx, t.repo.sections, bson.M{"project_id": bson.M{"$in": projectIDs}}, sectionDoc.toDomain)
}

func (t tenantTx) DeleteSections(ctx context.Context, ids []string) (int64, error) {
	return deleteIDs(ctx, t.repo.sections, ids)
}

func (t tenantTx) DeleteProjects(ctx context.Context, ids []string) (int64, error) {
	return deleteIDs(ctx, t.repo.projects, ids)
}

func (t tenantTx) DeleteClients(ctx context.Context, ids []string) (int64, error) {
	return deleteIDs(ctx, t.repo.clients, ids)
}

func (t tenantTx) DeleteStudio(ctx context.Context, id string) (int64, error) {
	res, err := t.repo.studios.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (t tenantTx) TouchStudio(ctx context.Context, id string) error {
	return touch(ctx, t.repo.studios, id)
}

func (t tenantTx) TouchClient(ctx context.Context, id string) error {
	return touch(ctx, t.repo.clients, id)
}

func (t tenantTx) TouchProject(ctx context.Context, id string) error {
	return touch(ctx, t.repo.projects, id)
}

func (t tenantTx) UpdateStudioProfile(ctx context.Context, id, name string, logo *domain.MediaRef) error {
	set := bson.M{"display_name": name, "updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if logo != nil {
		set["logo"] = toMediaDoc(logo)
	} else {
		update["$unset"] = bson.M{"logo": ""}
	}
	return updateOne(ctx, t.repo.studios, id, update)
}

func (t tenantTx) InsertClient(ctx context.Context, c *domain.Client) error {
	return insert(ctx, t.repo.clients, newClientDoc(c))
}

func (t tenantTx) InsertProject(ctx context.Context, p *domain.Project) error {
	return insert(ctx, t.repo.projects, newProjectDoc(p))
}

func (t tenantTx) InsertSection(ctx context.Context, s *domain.Section) error {
	return insert(ctx, t.repo.sections, newSectionDoc(s))
}

// touch writes updated_at so the document joins the transaction's write set.
func touch(ctx context.Context, coll *mongo.Collection, id string) error {
	return updateOne(ctx, coll, id, bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}})
}

func updateOne(ctx context.Context, coll *mongo.Collection, id string, update bson.M) error {
	res, err := coll.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func findStudio(ctx context.Context, coll *mongo.Collection, id string) (*domain.Studio, error) {
	var doc studioDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err, "studio")
	}
	return doc.toDomain(), nil
}

func findClient(ctx context.Context, coll *mongo.Collection, id string) (*domain.Client, error) {
	var doc clientDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err, "client")
	}
	c := doc.toDomain()
	return &c, nil
}

func findProject(ctx context.Context, coll *mongo.Collection, id string) (*domain.Project, error) {
	var doc projectDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err, "project")
	}
	p := doc.toDomain()
	return &p, nil
}

func findMany[D any, T any](ctx context.Context, coll *mongo.Collection, filter bson.M, conv func(D) T, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}

	out := make([]T, len(docs))
	for i, d := range docs {
		out[i] = conv(d)
	}
	return out, nil
}

func deleteIDs(ctx context.Context, coll *mongo.Collection, ids []string) (int64, error) {
	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("find %s: %w", what, err)
}

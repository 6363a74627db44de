package mongodb

import (
	"context"
	"errors"
	"time"

	"choria/internal/player/entity"
	"choria/internal/player/errs"
	"choria/internal/player/infra/persistence/model"
	"choria/internal/shared/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultCharacterCollectionName = "characters"

const (
	OpListByAccount = "repo.character.ListByAccount"
	OpLoad          = "repo.character.Load"
	OpCreate        = "repo.character.Create"
	OpDelete        = "repo.character.Delete"
	OpSave          = "repo.character.Save"
)

var errNilCollection = errors.New("mongodb character collection is nil")

type CharacterRepo struct {
	coll *mongo.Collection
	ids  *utils.Snowflake
}

// NewCharacterRepo mongo 没有自增主键，角色 id 用 snowflake 生成。
func NewCharacterRepo(db *mongo.Database, ids *utils.Snowflake) *CharacterRepo {
	if db == nil {
		return &CharacterRepo{ids: ids}
	}
	return &CharacterRepo{coll: db.Collection(defaultCharacterCollectionName), ids: ids}
}

// EnsureIndexes 名字唯一、按账号查询。
func (r *CharacterRepo) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errNilCollection
	}
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "account_id", Value: 1}}},
	})
	return err
}

func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID int64) ([]entity.Character, error) {
	meta := map[string]any{"account_id": accountID}
	if r == nil || r.coll == nil {
		return nil, errs.Wrap(OpListByAccount, errs.KindInfra, errNilCollection, meta)
	}
	cur, err := r.coll.Find(ctx, bson.M{"account_id": accountID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errs.Wrap(OpListByAccount, errs.KindInfra, err, meta)
	}
	var docs []model.CharacterDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(OpListByAccount, errs.KindInfra, err, meta)
	}
	out := make([]entity.Character, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Character())
	}
	return out, nil
}

func (r *CharacterRepo) Load(ctx context.Context, characterID int64) (*entity.CharacterSnapshot, error) {
	meta := map[string]any{"character_id": characterID}
	if r == nil || r.coll == nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, errNilCollection, meta)
	}
	var doc model.CharacterDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": characterID}).Decode(&doc)
	switch {
	case err == nil:
		return doc.Snapshot(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, entity.ErrCharacterNotFound
	default:
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, meta)
	}
}

func (r *CharacterRepo) Create(ctx context.Context, snap *entity.CharacterSnapshot) (int64, error) {
	if snap == nil {
		return 0, nil
	}
	meta := map[string]any{"account_id": snap.Character.AccountID, "name": snap.Character.Name}
	if r == nil || r.coll == nil {
		return 0, errs.Wrap(OpCreate, errs.KindInfra, errNilCollection, meta)
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"name": snap.Character.Name})
	if err != nil {
		return 0, errs.Wrap(OpCreate, errs.KindInfra, err, meta)
	}
	if n > 0 {
		return 0, entity.ErrNameInUse
	}

	doc := model.SnapshotToDoc(snap)
	doc.ID = r.ids.NextID()
	now := time.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, entity.ErrNameInUse
		}
		return 0, errs.Wrap(OpCreate, errs.KindInfra, err, meta)
	}
	return doc.ID, nil
}

func (r *CharacterRepo) Delete(ctx context.Context, accountID, characterID int64) error {
	meta := map[string]any{"account_id": accountID, "character_id": characterID}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpDelete, errs.KindInfra, errNilCollection, meta)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": characterID, "account_id": accountID})
	if err != nil {
		return errs.Wrap(OpDelete, errs.KindInfra, err, meta)
	}
	if res.DeletedCount == 0 {
		return entity.ErrCharacterNotFound
	}
	return nil
}

// Save 整文档替换；version 更旧的快照不会覆盖更新的文档。
func (r *CharacterRepo) Save(ctx context.Context, snap *entity.CharacterSnapshot) error {
	if snap == nil {
		return nil
	}
	meta := map[string]any{"character_id": snap.Character.ID, "version": snap.Version}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpSave, errs.KindInfra, errNilCollection, meta)
	}
	if snap.Character.ID == 0 {
		return errs.Wrap(OpSave, errs.KindInfra, entity.ErrCharacterNotFound, meta)
	}

	doc := model.SnapshotToDoc(snap)
	doc.UpdatedAt = time.Now()
	var old model.CharacterDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": doc.ID}, options.FindOne().SetProjection(bson.M{"created_at": 1, "version": 1})).Decode(&old)
	switch {
	case err == nil:
		if old.Version > doc.Version {
			return nil
		}
		doc.CreatedAt = old.CreatedAt
	case errors.Is(err, mongo.ErrNoDocuments):
		doc.CreatedAt = doc.UpdatedAt
	default:
		return errs.Wrap(OpSave, errs.KindInfra, err, meta)
	}

	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, meta)
	}
	return nil
}

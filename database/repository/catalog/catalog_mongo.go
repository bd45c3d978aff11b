package catalogRepo

import (
	"context"
	"errors"
	"fmt"

	"fisiocare/database"
	"fisiocare/models"
	"fisiocare/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository is the read-side view of packages and therapists this
// service needs; their CRUD lives in another service.
type CatalogRepository interface {
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	GetTherapist(ctx context.Context, id string) (*models.Therapist, error)
}

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	packageColl   *mongo.Collection
	therapistColl *mongo.Collection
}

// NewMongoCatalogRepo creates a new instance of CatalogRepository using MongoDB.
func NewMongoCatalogRepo() CatalogRepository {
	return &MongoCatalogRepo{
		packageColl:   database.Collection("packages"),
		therapistColl: database.Collection("therapists"),
	}
}

func (r *MongoCatalogRepo) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	if err := r.packageColl.FindOne(ctx, bson.M{"id": id}).Decode(&pkg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "package", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch package %s: %w", id, err)
	}
	return &pkg, nil
}

func (r *MongoCatalogRepo) GetTherapist(ctx context.Context, id string) (*models.Therapist, error) {
	var therapist models.Therapist
	if err := r.therapistColl.FindOne(ctx, bson.M{"id": id}).Decode(&therapist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "therapist", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch therapist %s: %w", id, err)
	}
	return &therapist, nil
}

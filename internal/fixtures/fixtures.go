// Package fixtures loads users and items from YAML into a store.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gopkg.in/yaml.v2"
)

type File struct {
	Users []models.User `yaml:"users"`
	Items []models.Item `yaml:"items"`
}

// Store is what Apply writes through.
type Store interface {
	domain.UserLookup
	domain.ItemLookup
	CreateUser(ctx context.Context, user *models.User) error
	CreateItem(ctx context.Context, item *models.Item) error
}

// Result counts the records Apply inserted.
type Result struct {
	Users int
	Items int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Apply inserts the fixtures, skipping records whose explicit id already exists.
func Apply(ctx context.Context, store Store, f *File) (Result, error) {
	var res Result
	for i := range f.Users {
		u := &f.Users[i]
		if u.ID != 0 {
			_, err := store.GetUser(ctx, u.ID)
			exists, err := found(err)
			if err != nil {
				return res, fmt.Errorf("user %d: %w", u.ID, err)
			}
			if exists {
				continue
			}
		}
		if err := store.CreateUser(ctx, u); err != nil {
			return res, fmt.Errorf("create user %q: %w", u.Email, err)
		}
		res.Users++
	}

	for i := range f.Items {
		it := &f.Items[i]
		if it.ID != 0 {
			_, err := store.GetItem(ctx, it.ID)
			exists, err := found(err)
			if err != nil {
				return res, fmt.Errorf("item %d: %w", it.ID, err)
			}
			if exists {
				continue
			}
		}
		if err := store.CreateItem(ctx, it); err != nil {
			return res, fmt.Errorf("create item %q: %w", it.Name, err)
		}
		res.Items++
	}

	return res, nil
}

// LoadAndApply is Load followed by Apply.
func LoadAndApply(ctx context.Context, store Store, path string) (Result, error) {
	f, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, store, f)
}

func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

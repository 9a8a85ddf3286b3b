// Package dao stores receipts of completed builds.
package dao

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"
	bolt "go.etcd.io/bbolt"

	"github.com/cashapp/bootstrap/errors"
)

// DatabaseFile is the name of the receipt database within the state directory.
const DatabaseFile = "receipts.db"

// DAO abstracts away the database access
type DAO struct {
	path string
}

// Receipt records a package that was built from source and installed.
type Receipt struct {
	Name     string        `json:"name" yaml:"name"`
	Source   string        `json:"source" yaml:"source"`
	Prefix   string        `json:"prefix" yaml:"prefix"`
	Platform string        `json:"platform" yaml:"platform"`
	Flags    []string      `json:"flags,omitempty" yaml:"flags,omitempty"`
	BuiltAt  time.Time     `json:"built_at" yaml:"built_at"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Open returns a new DAO at the given state directory
func Open(stateDir string) (*DAO, error) {
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, errors.WithStack(err)
	}
	return &DAO{path: filepath.Join(stateDir, DatabaseFile)}, nil
}

// Record a receipt, replacing any previous receipt with the same name.
func (d *DAO) Record(receipt *Receipt) error {
	if receipt.Name == "" {
		return errors.New("receipt has no name")
	}
	return d.update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(receipt.Name)) != nil {
			if err := tx.DeleteBucket([]byte(receipt.Name)); err != nil {
				return errors.WithStack(err)
			}
		}
		b, err := tx.CreateBucket([]byte(receipt.Name))
		if err != nil {
			return errors.WithStack(err)
		}
		for key, value := range map[string]string{
			sourceKey:   receipt.Source,
			prefixKey:   receipt.Prefix,
			platformKey: receipt.Platform,
			flagsKey:    shellquote.Join(receipt.Flags...),
			builtAtKey:  receipt.BuiltAt.UTC().Format(timeformat),
			durationKey: strconv.FormatInt(int64(receipt.Duration), 10),
		} {
			if err := b.Put([]byte(key), []byte(value)); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

// Get the receipt for a package, or nil if it has not been built.
func (d *DAO) Get(name string) (*Receipt, error) {
	var receipt *Receipt
	err := d.view(func(tx *bolt.Tx) error {
		receipt = receiptAt(name, tx.Bucket([]byte(name)))
		return nil
	})
	return receipt, err
}

// List all receipts, sorted by name.
func (d *DAO) List() ([]*Receipt, error) {
	out := []*Receipt{}
	err := d.view(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			out = append(out, receiptAt(string(name), b))
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Delete the receipt for a package.
func (d *DAO) Delete(name string) error {
	return d.update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return errors.Errorf("no receipt for %q", name)
		}
		return errors.WithStack(err)
	})
}

// Dump content of database to w.
func (d *DAO) Dump(w io.Writer) error {
	return d.view(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			fmt.Fprintf(w, "%s:\n", name)
			return b.ForEach(func(k, v []byte) error {
				fmt.Fprintf(w, "  %s = %q\n", k, v)
				return nil
			})
		})
	})
}

func (d *DAO) db(readonly bool) (*bolt.DB, error) {
	db, err := bolt.Open(d.path, 0600, &bolt.Options{
		Timeout:  5 * time.Second,
		ReadOnly: readonly,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open receipt database: %s", d.path)
	}
	return db, nil
}

// A database that doesn't exist yet is empty.
func (d *DAO) view(fn func(tx *bolt.Tx) error) error {
	if _, err := os.Stat(d.path); os.IsNotExist(err) {
		return nil
	}
	db, err := d.db(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return errors.WithStack(db.View(fn))
}

func (d *DAO) update(fn func(tx *bolt.Tx) error) error {
	db, err := d.db(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return errors.WithStack(db.Update(fn))
}

const (
	sourceKey   = "source"
	prefixKey   = "prefix"
	platformKey = "platform"
	flagsKey    = "flags"
	builtAtKey  = "builtAt"
	durationKey = "duration"
	timeformat  = time.RFC3339
)

func stringAt(bucket *bolt.Bucket, name string) string {
	bytes := bucket.Get([]byte(name))
	if bytes == nil {
		return ""
	}
	return string(bytes)
}

func timeAt(bucket *bolt.Bucket, name string) time.Time {
	t, err := time.Parse(timeformat, stringAt(bucket, name))
	if err != nil {
		return time.Time{}
	}
	return t
}

func receiptAt(name string, b *bolt.Bucket) *Receipt {
	if b == nil {
		return nil
	}
	flags, err := shellquote.Split(stringAt(b, flagsKey))
	if err != nil {
		flags = nil
	}
	duration, _ := strconv.ParseInt(stringAt(b, durationKey), 10, 64)
	return &Receipt{
		Name:     name,
		Source:   stringAt(b, sourceKey),
		Prefix:   stringAt(b, prefixKey),
		Platform: stringAt(b, platformKey),
		Flags:    flags,
		BuiltAt:  timeAt(b, builtAtKey),
		Duration: time.Duration(duration),
	}
}

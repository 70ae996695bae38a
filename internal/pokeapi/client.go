// Package pokeapi is the subject data provider for the silhouette quiz.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoJapaneseName reports that the species has no ja-hrkt localization.
var ErrNoJapaneseName = errors.New("species has no japanese name")

const (
	speciesCacheSize = 128
	spriteCacheSize  = 50
	cacheTTL         = 6 * time.Hour

	languageJaHrkt = "ja-hrkt"
)

type namedResource struct {
	Name string `json:"name"`
}

type speciesData struct {
	ID    int `json:"id"`
	Names []struct {
		Name     string        `json:"name"`
		Language namedResource `json:"language"`
	} `json:"names"`
	FlavorTextEntries []struct {
		FlavorText string        `json:"flavor_text"`
		Language   namedResource `json:"language"`
	} `json:"flavor_text_entries"`
}

type pokemonData struct {
	ID      int `json:"id"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

type speciesList struct {
	Count int `json:"count"`
}

// Client fetches quiz subjects from PokeAPI with bounded caching.
type Client struct {
	baseURL string
	http    *http.Client

	species *boundedCache
	pokemon *boundedCache
	sprites *boundedCache

	totalMu sync.Mutex
	total   int
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		species: newBoundedCache(speciesCacheSize, cacheTTL),
		pokemon: newBoundedCache(speciesCacheSize, cacheTTL),
		sprites: newBoundedCache(spriteCacheSize, cacheTTL),
	}
}

// RandomSubjectID picks a uniformly random species id.
func (c *Client) RandomSubjectID(ctx context.Context) (int, error) {
	total, err := c.totalSpecies(ctx)
	if err != nil {
		return 0, err
	}
	return 1 + rand.IntN(total), nil
}

// DisplayName returns the species' Japanese name.
func (c *Client) DisplayName(ctx context.Context, id int) (string, error) {
	sp, err := c.getSpecies(ctx, id)
	if err != nil {
		return "", err
	}
	for _, n := range sp.Names {
		if n.Language.Name == languageJaHrkt {
			return n.Name, nil
		}
	}
	return "", fmt.Errorf("species %d: %w", id, ErrNoJapaneseName)
}

// Description returns the species' Japanese flavor text, or empty when the
// localization is missing.
func (c *Client) Description(ctx context.Context, id int) (string, error) {
	sp, err := c.getSpecies(ctx, id)
	if err != nil {
		return "", err
	}
	for _, f := range sp.FlavorTextEntries {
		if f.Language.Name == languageJaHrkt {
			return f.FlavorText, nil
		}
	}
	return "", nil
}

// SpriteImage returns the subject's default sprite bytes.
func (c *Client) SpriteImage(ctx context.Context, id int) ([]byte, error) {
	key := fmt.Sprintf("sprite:%d", id)
	if v, ok := c.sprites.get(key); ok {
		return v.([]byte), nil
	}

	p, err := c.getPokemon(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Sprites.FrontDefault == "" {
		return nil, fmt.Errorf("pokemon %d has no front sprite", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Sprites.FrontDefault, nil)
	if err != nil {
		return nil, fmt.Errorf("create sprite request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sprite: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sprite: status %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read sprite: %w", err)
	}

	c.sprites.put(key, data)
	return data, nil
}

// totalSpecies memoizes the species count on success only, so a transient
// fetch failure does not wedge the quiz until restart.
func (c *Client) totalSpecies(ctx context.Context) (int, error) {
	c.totalMu.Lock()
	defer c.totalMu.Unlock()
	if c.total > 0 {
		return c.total, nil
	}

	var list speciesList
	if err := c.getJSON(ctx, "/pokemon-species?limit=1", &list); err != nil {
		return 0, err
	}
	if list.Count <= 0 {
		return 0, fmt.Errorf("species count %d is invalid", list.Count)
	}
	c.total = list.Count
	return c.total, nil
}

func (c *Client) getSpecies(ctx context.Context, id int) (*speciesData, error) {
	key := fmt.Sprintf("species:%d", id)
	if v, ok := c.species.get(key); ok {
		return v.(*speciesData), nil
	}
	var sp speciesData
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon-species/%d", id), &sp); err != nil {
		return nil, err
	}
	c.species.put(key, &sp)
	return &sp, nil
}

func (c *Client) getPokemon(ctx context.Context, id int) (*pokemonData, error) {
	key := fmt.Sprintf("pokemon:%d", id)
	if v, ok := c.pokemon.get(key); ok {
		return v.(*pokemonData), nil
	}
	var p pokemonData
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon/%d", id), &p); err != nil {
		return nil, err
	}
	c.pokemon.put(key, &p)
	return &p, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("pokeapi status %d for %s", res.StatusCode, path)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

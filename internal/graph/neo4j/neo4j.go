// Package neo4j stores function libraries as Function nodes linked by
// CALLS relations.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/sikuliflow/internal/funcdef"
	"github.com/efebarandurmaz/sikuliflow/internal/graph"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Repository implements graph.Repository using Neo4j.
type Repository struct {
	driver neo4j.DriverWithContext
}

// New connects to the database at uri and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Repository{driver: driver}, nil
}

func (r *Repository) StoreLibrary(ctx context.Context, project string, defs []ir.FunctionDef) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MERGE (p:Project {name: $project}) "+
				"WITH p OPTIONAL MATCH (p)-[:CONTAINS]->(f:Function) WHERE NOT f.id IN $ids "+
				"DETACH DELETE f",
			map[string]any{"project": project, "ids": ids}); err != nil {
			return nil, err
		}
		for _, d := range defs {
			raw, err := json.Marshal(d.Graph)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", d.ID, err)
			}
			if _, err := tx.Run(ctx,
				"MATCH (p:Project {name: $project}) "+
					"MERGE (p)-[:CONTAINS]->(f:Function {id: $id}) "+
					"SET f.name = $name, f.nodes = $nodes, f.graph = $graph "+
					"WITH f OPTIONAL MATCH (f)-[c:CALLS]->() DELETE c",
				map[string]any{
					"project": project,
					"id":      d.ID,
					"name":    d.Name,
					"nodes":   len(d.Graph.Nodes),
					"graph":   string(raw),
				}); err != nil {
				return nil, err
			}
		}
		for _, d := range defs {
			for _, callee := range funcdef.Callees(d.Graph) {
				if _, err := tx.Run(ctx,
					"MATCH (p:Project {name: $project})-[:CONTAINS]->(a:Function {id: $caller}) "+
						"MATCH (p)-[:CONTAINS]->(b:Function {id: $callee}) "+
						"MERGE (a)-[:CALLS]->(b)",
					map[string]any{"project": project, "caller": d.ID, "callee": callee}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store library %s: %w", project, err)
	}
	return nil
}

func (r *Repository) LoadLibrary(ctx context.Context, project string) ([]ir.FunctionDef, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (:Project {name: $project})-[:CONTAINS]->(f:Function) "+
				"RETURN f.id AS id, f.name AS name, f.graph AS graph ORDER BY f.id",
			map[string]any{"project": project})
		if err != nil {
			return nil, err
		}
		var defs []ir.FunctionDef
		for records.Next(ctx) {
			rec := records.Record()
			id, _, err := neo4j.GetRecordValue[string](rec, "id")
			if err != nil {
				return nil, err
			}
			name, _, err := neo4j.GetRecordValue[string](rec, "name")
			if err != nil {
				return nil, err
			}
			raw, _, err := neo4j.GetRecordValue[string](rec, "graph")
			if err != nil {
				return nil, err
			}
			def := ir.FunctionDef{ID: id, Name: name}
			if err := json.Unmarshal([]byte(raw), &def.Graph); err != nil {
				return nil, fmt.Errorf("decode %s: %w", id, err)
			}
			defs = append(defs, def)
		}
		return defs, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load library %s: %w", project, err)
	}
	return result.([]ir.FunctionDef), nil
}

func (r *Repository) QueryCallees(ctx context.Context, project, defID string) ([]string, error) {
	return r.queryIDs(ctx,
		"MATCH (p:Project {name: $project})-[:CONTAINS]->(:Function {id: $id})-[:CALLS]->(f:Function) "+
			"RETURN f.id AS id ORDER BY id",
		project, defID)
}

func (r *Repository) QueryCallers(ctx context.Context, project, defID string) ([]string, error) {
	return r.queryIDs(ctx,
		"MATCH (p:Project {name: $project})-[:CONTAINS]->(f:Function)-[:CALLS]->(:Function {id: $id}) "+
			"RETURN f.id AS id ORDER BY id",
		project, defID)
}

func (r *Repository) queryIDs(ctx context.Context, cypher, project, defID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypher, map[string]any{"project": project, "id": defID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			id, _, err := neo4j.GetRecordValue[string](records.Record(), "id")
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graph.Repository = (*Repository)(nil)

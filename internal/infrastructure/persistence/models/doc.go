// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - catalog.go: garments
// - artwork.go: artwork files and saved artwork
// - customer.go: customers
// - order.go: orders with items and print locations
// - campaign.go: campaigns, garment configs and participant orders
// - identity.go: admin users
//
// Columns holding lists or maps use the GORM JSON serializer so the same
// models migrate on PostgreSQL (jsonb) and SQLite (text) alike.
package models

// Package store provides persistence for the catalog, orders and admin
// users. The sqlite backend is the durable implementation used by the CLI;
// the in-memory implementations back tests and offline development. All
// implement the contracts declared in core (InventoryGateway via the
// catalog tables, OrderStore, AdminAuthorizer).
package store

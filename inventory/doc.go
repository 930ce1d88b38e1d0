// Package inventory contains the in-memory core.InventoryGateway used in
// tests and offline development. The durable sqlite-backed gateway lives
// in the store package; both honor the same conditional decrement
// contract: stock is subtracted only when the full requested quantity is
// available, atomically per product.
package inventory

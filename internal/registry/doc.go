// Package registry tracks collections and the assets minted into them.
//
// Each asset has an owner and a frozen flag. A frozen asset cannot change
// custody; the auction engine freezes an asset for the lifetime of its
// auction. Each collection has an owner who receives royalties on sales.
package registry

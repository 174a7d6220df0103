package clusters

import "fmt"

// Cluster identifies a Solana cluster
type Cluster string

const (
	MainnetBeta Cluster = "mainnet-beta"
	Devnet      Cluster = "devnet"
	Testnet     Cluster = "testnet"
)

// ClusterList contains the list of supported clusters
var ClusterList = []Cluster{
	MainnetBeta,
	Devnet,
	Testnet,
}

// rpcURLs maps clusters to their public RPC endpoints
var rpcURLs = map[Cluster]string{
	MainnetBeta: "https://api.mainnet-beta.solana.com",
	Devnet:      "https://api.devnet.solana.com",
	Testnet:     "https://api.testnet.solana.com",
}

// Parse returns the cluster matching name
func Parse(name string) (Cluster, bool) {
	for _, cluster := range ClusterList {
		if string(cluster) == name {
			return cluster, true
		}
	}
	return "", false
}

// Names returns the names of all supported clusters
func Names() []string {
	names := make([]string, 0, len(ClusterList))
	for _, cluster := range ClusterList {
		names = append(names, string(cluster))
	}
	return names
}

// DefaultRPCURL returns the public RPC endpoint of a cluster
func DefaultRPCURL(cluster Cluster) string {
	rpcURL, exists := rpcURLs[cluster]
	if !exists {
		return ""
	}
	return rpcURL
}

// ExplorerTxURL returns the explorer link for a transaction signature.
// Mainnet links carry no cluster parameter.
func ExplorerTxURL(cluster Cluster, signature string) string {
	if signature == "" {
		return ""
	}
	if cluster == MainnetBeta || cluster == "" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, cluster)
}

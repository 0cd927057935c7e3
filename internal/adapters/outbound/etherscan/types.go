package etherscan

// apiResponse is the envelope of the contract module. For getabi the result
// is the ABI as a JSON-encoded string.
//
//	{
//	  "status": "1",
//	  "message": "OK",
//	  "result": "[{\"inputs\":[]...}]"
//	}
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

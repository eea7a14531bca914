package dto

type ArchivoResponse struct {
	Ruta        string `json:"ruta"`
	Categoria   string `json:"categoria"`
	ContentType string `json:"content_type"`
	Tamano      int64  `json:"tamano"`
}
